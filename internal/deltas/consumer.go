// Package deltas consumes realtime change events.
//
// One long-lived subscription exists per collection. Deltas for one
// collection apply strictly in delivery order on a dedicated goroutine;
// collections are independent of each other, matching the per-entity
// critical section the facade enforces. Delivery is at-least-once, so
// application is idempotent (upsert and delete naturally are).
//
// If a subscription drops, no replay is attempted: the consumer for
// that collection stops and staleness heals via the next full resync
// (manual retry, reconnect, or periodic probe success).
package deltas

import (
	"context"
	"log/slog"
	"sync"

	"github.com/parkminsu/janbu/internal/remote"
)

// Applier applies one delta to the canonical state. Implemented by the
// storage facade; the consumer never mutates collections directly.
type Applier interface {
	ApplyDelta(ctx context.Context, d remote.Delta) error
}

// Subscriber opens change subscriptions. Implemented by the remote client.
type Subscriber interface {
	Subscribe(ctx context.Context, collection string) (<-chan remote.Delta, error)
}

// Consumer runs the per-collection delta loops.
type Consumer struct {
	sub     Subscriber
	applier Applier
	logger  *slog.Logger

	wg sync.WaitGroup
}

// NewConsumer creates a consumer feeding the applier.
func NewConsumer(sub Subscriber, applier Applier, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{sub: sub, applier: applier, logger: logger}
}

// Start opens one subscription per collection and begins applying.
//
// Collections whose subscription cannot be opened are skipped with a
// warning; they stay consistent through resyncs only. Start returns
// immediately; Wait blocks until every loop has stopped.
func (c *Consumer) Start(ctx context.Context, collections []string) {
	for _, collection := range collections {
		ch, err := c.sub.Subscribe(ctx, collection)
		if err != nil {
			c.logger.Warn("subscription unavailable, collection heals via resync",
				"collection", collection, "error", err)
			continue
		}
		c.wg.Add(1)
		go c.run(ctx, collection, ch)
	}
}

// Wait blocks until all consumer loops have exited.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

// run applies deltas for one collection until the stream ends.
func (c *Consumer) run(ctx context.Context, collection string, ch <-chan remote.Delta) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-ch:
			if !ok {
				c.logger.Warn("change subscription closed, no replay attempted",
					"collection", collection)
				return
			}
			if err := c.applier.ApplyDelta(ctx, d); err != nil {
				c.logger.Error("failed to apply delta",
					"collection", collection, "id", d.ID(), "eventType", string(d.Type), "error", err)
			}
		}
	}
}
