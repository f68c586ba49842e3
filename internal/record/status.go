package record

// Status is the order fulfilment status.
//
// Transitions are unrestricted: any status is reachable from any other,
// including cancelled and refunded from every state. The interesting
// business rules live in the transition result, not in a transition
// guard table.
type Status string

const (
	StatusReceived         Status = "received"
	StatusPaymentConfirmed Status = "payment_confirmed"
	StatusPacking          Status = "packing"
	StatusShipped          Status = "shipped"
	StatusDelivered        Status = "delivered"
	StatusCancelled        Status = "cancelled"
	StatusRefunded         Status = "refunded"
)

// FieldOrderStatus is the order status field name on the wire.
const FieldOrderStatus = "order_status"

// Statuses lists every valid order status.
var Statuses = []Status{
	StatusReceived,
	StatusPaymentConfirmed,
	StatusPacking,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusRefunded,
}

// ValidStatus reports whether s is one of the seven order statuses.
func ValidStatus(s Status) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// StatusTransition is the pure result of applying a status change.
//
// The status service uses it to decide which side effects to run; this
// keeps the business rules testable without I/O.
type StatusTransition struct {
	// Changed is false when the order was already in the target status.
	// Unchanged transitions still persist (updated_at refreshes) but
	// trigger no side effects.
	Changed bool

	// Notify is true when a customer notification should be attempted.
	// Notification dispatch is still subject to the debounce window.
	Notify bool

	// Delivered is true when the transition entered the delivered
	// status, which schedules a grade recomputation for the customer.
	Delivered bool
}

// ApplyStatusTransition computes the side effects of moving an order
// from oldStatus to newStatus.
func ApplyStatusTransition(oldStatus, newStatus Status) StatusTransition {
	changed := oldStatus != newStatus
	return StatusTransition{
		Changed:   changed,
		Notify:    changed,
		Delivered: changed && newStatus == StatusDelivered,
	}
}
