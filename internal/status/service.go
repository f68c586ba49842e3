// Package status drives order status transitions and their cascading
// effects: customer notification (debounced) and grade recomputation
// for delivered orders.
//
// Transitions are unrestricted - any status is reachable from any
// other, including cancelled and refunded from every state. The
// operation never surfaces remote failures to the caller; the local
// write is already committed when side effects run, and internal
// failures go to the non-blocking error topic.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parkminsu/janbu/internal/facade"
	"github.com/parkminsu/janbu/internal/notify"
	"github.com/parkminsu/janbu/internal/pubsub"
	"github.com/parkminsu/janbu/internal/record"
)

// DefaultSettleDelay gives a delivered transition time to settle before
// the grade recomputation reads the order set.
const DefaultSettleDelay = 3 * time.Second

// Store is the slice of the storage facade the service needs.
type Store interface {
	Get(ctx context.Context, collection, id string) (record.Fields, error)
	Save(ctx context.Context, collection string, fields record.Fields) (facade.SaveResult, error)
}

// Recalculator recomputes one customer's grade.
type Recalculator interface {
	RecalculateCustomer(ctx context.Context, customerID string) error
}

// Options tunes the service. Zero values select defaults.
type Options struct {
	DebounceWindow time.Duration
	SettleDelay    time.Duration

	// Now and Schedule are injected by tests; nil selects time.Now and
	// time.AfterFunc.
	Now      func() time.Time
	Schedule func(d time.Duration, fn func())
}

// Service is the order status state machine.
type Service struct {
	store    Store
	notifier notify.Notifier
	recalc   Recalculator
	bus      *pubsub.Bus
	logger   *slog.Logger

	deb         *debouncer
	settleDelay time.Duration
	schedule    func(d time.Duration, fn func())
}

// NewService creates the status service.
func NewService(store Store, notifier notify.Notifier, recalc Recalculator, bus *pubsub.Bus, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	schedule := opts.Schedule
	if schedule == nil {
		schedule = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	return &Service{
		store:       store,
		notifier:    notifier,
		recalc:      recalc,
		bus:         bus,
		logger:      logger,
		deb:         newDebouncer(opts.DebounceWindow, opts.Now),
		settleDelay: settle,
		schedule:    schedule,
	}
}

// SetOrderStatus moves an order to newStatus and runs the cascade.
//
// Returns NOT_FOUND when the order is absent and an error for an
// invalid status; every other failure is absorbed: the local write is
// guaranteed by the facade, the remote write is best-effort, and
// notification or recomputation failures are logged and reported on the
// error topic without aborting the operation.
func (s *Service) SetOrderStatus(ctx context.Context, orderID string, newStatus record.Status) error {
	if !record.ValidStatus(newStatus) {
		return fmt.Errorf("invalid order status %q", newStatus)
	}

	order, err := s.store.Get(ctx, record.Orders, orderID)
	if err != nil {
		return err
	}

	oldStatus := record.Status(order.Str(record.FieldOrderStatus))
	updated := order.Clone()
	updated[record.FieldOrderStatus] = string(newStatus)

	// Dual-write: local guaranteed, remote best-effort. The facade
	// publishes the re-render notification for the mutation.
	if _, err := s.store.Save(ctx, record.Orders, updated); err != nil {
		s.logger.Error("failed to persist status change",
			"order", orderID, "status", string(newStatus), "error", err)
		s.bus.Publish(pubsub.Event{
			Topic:      pubsub.TopicErrors,
			Collection: record.Orders,
			Data:       err.Error(),
		})
		return nil
	}

	tr := record.ApplyStatusTransition(oldStatus, newStatus)
	if tr.Notify {
		s.dispatchNotification(ctx, updated, newStatus)
	}
	if tr.Delivered {
		s.scheduleRecalc(updated.Str("customer_id"))
	}
	return nil
}

// dispatchNotification notifies the owning customer of a status change,
// subject to the per-(order, status) debounce window.
func (s *Service) dispatchNotification(ctx context.Context, order record.Fields, newStatus record.Status) {
	orderID := order.ID()
	if !s.deb.allow(orderID, newStatus) {
		s.logger.Debug("notification debounced", "order", orderID, "status", string(newStatus))
		return
	}

	customerID := order.Str("customer_id")
	if customerID == "" {
		s.logger.Debug("order has no customer, skipping notification", "order", orderID)
		return
	}
	customer, err := s.store.Get(ctx, record.Customers, customerID)
	if err != nil {
		s.logger.Warn("customer lookup failed, skipping notification",
			"order", orderID, "customer", customerID, "error", err)
		return
	}

	ev := notify.Event{Type: notify.EventStatusChanged, OrderID: orderID, Status: newStatus}
	if err := s.notifier.Notify(ctx, customer, ev); err != nil {
		// Logged, not retried, not fatal.
		s.logger.Warn("notification failed",
			"order", orderID, "customer", customerID, "error", err)
		s.bus.Publish(pubsub.Event{
			Topic:      pubsub.TopicErrors,
			Collection: record.Orders,
			Data:       err.Error(),
		})
	}
}

// scheduleRecalc queues a grade recomputation after the settle delay.
//
// The recomputation runs detached from the triggering call: by then the
// transition is already durable, so its context is not reused.
func (s *Service) scheduleRecalc(customerID string) {
	if customerID == "" || s.recalc == nil {
		return
	}
	s.schedule(s.settleDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.recalc.RecalculateCustomer(ctx, customerID); err != nil {
			s.logger.Warn("grade recomputation failed", "customer", customerID, "error", err)
		}
	})
}
