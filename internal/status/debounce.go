package status

import (
	"sync"
	"time"

	"github.com/parkminsu/janbu/internal/record"
)

// DefaultDebounceWindow suppresses duplicate notifications for rapid
// repeated transitions into the same status.
const DefaultDebounceWindow = 5 * time.Minute

// debouncer is the per-(order, status) rate limiter owned by the
// notification dispatcher.
//
// Thread-safety: safe for concurrent use.
type debouncer struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[debounceKey]time.Time
}

type debounceKey struct {
	orderID string
	status  record.Status
}

func newDebouncer(window time.Duration, now func() time.Time) *debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	if now == nil {
		now = time.Now
	}
	return &debouncer{
		window: window,
		now:    now,
		last:   make(map[debounceKey]time.Time),
	}
}

// allow reports whether a notification for (orderID, status) may be
// dispatched now, and records the dispatch when it may.
func (d *debouncer) allow(orderID string, status record.Status) bool {
	key := debounceKey{orderID: orderID, status: status}
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.last[key]; ok && now.Sub(prev) < d.window {
		return false
	}
	d.last[key] = now
	return true
}
