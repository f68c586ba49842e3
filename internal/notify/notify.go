// Package notify is the boundary to the customer notification
// capability (SMS templating and delivery live outside the sync core).
//
// Dispatch is best-effort everywhere: a failed notification is logged
// and reported on the error topic, never retried, never fatal.
package notify

import (
	"context"
	"log/slog"

	"github.com/parkminsu/janbu/internal/record"
)

// Event kinds dispatched to customers.
const (
	EventStatusChanged = "status_changed"
	EventGradeUpgrade  = "upgrade"
)

// Event describes one customer notification.
type Event struct {
	// Type is EventStatusChanged or EventGradeUpgrade.
	Type string

	// OrderID and Status are set for status change events.
	OrderID string
	Status  record.Status

	// OldGrade and NewGrade are set for upgrade events.
	OldGrade string
	NewGrade string
}

// Notifier delivers one event to one customer.
type Notifier interface {
	Notify(ctx context.Context, customer record.Fields, ev Event) error
}

// LogNotifier records notifications in the log instead of sending them.
// Used when no delivery backend is configured, and in tests.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, customer record.Fields, ev Event) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification",
		"type", ev.Type,
		"customer", customer.ID(),
		"order", ev.OrderID,
		"status", string(ev.Status),
		"new_grade", ev.NewGrade)
	return nil
}
