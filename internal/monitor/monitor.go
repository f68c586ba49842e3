// Package monitor watches remote connectivity with a periodic probe.
//
// The monitor is a three-state machine: Unknown until the first probe
// resolves, then Connected or Disconnected. It owns no data; on a
// reconnect transition it fires registered hooks (the facade registers
// the full local-to-remote resync there) and on every transition it
// reports the change so the UI can show the offline indicator.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// State is the connectivity state.
type State int

const (
	// StateUnknown means no probe has resolved yet.
	StateUnknown State = iota
	// StateConnected means the last probe succeeded.
	StateConnected
	// StateDisconnected means the last probe failed or timed out.
	StateDisconnected
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Prober is the lightweight health check the monitor drives.
type Prober interface {
	Probe(ctx context.Context) error
}

// Defaults for the probe cycle.
const (
	DefaultInterval = 30 * time.Second
	DefaultTimeout  = 10 * time.Second
)

// Monitor is the connectivity state machine.
//
// Thread-safety: all methods are safe for concurrent use. Run is the
// only goroutine that probes periodically; RetryNow probes inline from
// the caller's goroutine.
type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	onReconnect []func(context.Context)
	onChange    []func(old, new State)
}

// New creates a monitor. Zero interval/timeout select the defaults.
func New(prober Prober, interval, timeout time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		state:    StateUnknown,
	}
}

// Status returns the current connectivity state.
func (m *Monitor) Status() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnReconnect registers a hook fired when the state leaves
// Disconnected (or Unknown) for Connected. The facade registers the
// one-shot full push of locally held records here.
func (m *Monitor) OnReconnect(fn func(context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnect = append(m.onReconnect, fn)
}

// OnChange registers a hook fired on every state transition.
func (m *Monitor) OnChange(fn func(old, new State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// Run probes immediately and then on every interval tick until ctx is
// cancelled. Teardown cancels the ticker.
func (m *Monitor) Run(ctx context.Context) {
	m.probeOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeOnce(ctx)
		}
	}
}

// RetryNow probes immediately (the manual retry action) and returns the
// resulting state.
func (m *Monitor) RetryNow(ctx context.Context) State {
	m.probeOnce(ctx)
	return m.Status()
}

// probeOnce runs one bounded probe and applies the transition.
//
// The probe context carries a hard timeout; a probe that exceeds it is
// abandoned and counted as a failure rather than left to complete late.
func (m *Monitor) probeOnce(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.prober.Probe(probeCtx)
	if err != nil {
		m.transition(ctx, StateDisconnected)
		m.logger.Debug("connectivity probe failed", "error", err)
		return
	}
	m.transition(ctx, StateConnected)
}

// transition applies a state change and fires hooks.
//
// Reconnect hooks run synchronously on the probing goroutine so a
// resync completes before the next tick can observe a stale cache.
func (m *Monitor) transition(ctx context.Context, next State) {
	m.mu.Lock()
	prev := m.state
	if prev == next {
		m.mu.Unlock()
		return
	}
	m.state = next
	reconnect := next == StateConnected
	reconnectHooks := append([]func(context.Context){}, m.onReconnect...)
	changeHooks := append([]func(old, new State){}, m.onChange...)
	m.mu.Unlock()

	m.logger.Info("connectivity changed", "from", prev.String(), "to", next.String())

	for _, fn := range changeHooks {
		fn(prev, next)
	}
	if reconnect {
		for _, fn := range reconnectHooks {
			fn(ctx)
		}
	}
}
