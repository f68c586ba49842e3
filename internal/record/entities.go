package record

import (
	"encoding/json"
	"fmt"
	"time"
)

// Meta is the envelope every entity carries.
type Meta struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Order is one customer order.
type Order struct {
	Meta
	OrderNumber string  `json:"order_number,omitempty"`
	CustomerID  string  `json:"customer_id,omitempty"`
	ChannelID   string  `json:"channel_id,omitempty"`
	OrderStatus Status  `json:"order_status,omitempty"`
	TotalAmount float64 `json:"total_amount,omitempty"`
	Memo        string  `json:"memo,omitempty"`
}

// Customer is one customer. Grade is derived from delivered orders and
// is never hand-authoritative; the recalculator owns it.
type Customer struct {
	Meta
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Grade   string `json:"grade,omitempty"`
	Memo    string `json:"memo,omitempty"`
}

// Product is one sellable product.
type Product struct {
	Meta
	Name       string  `json:"name,omitempty"`
	CategoryID string  `json:"category_id,omitempty"`
	Price      float64 `json:"price,omitempty"`
	Stock      int     `json:"stock,omitempty"`
}

// Category groups products.
type Category struct {
	Meta
	Name string `json:"name,omitempty"`
}

// WaitlistEntry is one customer waiting on a product.
type WaitlistEntry struct {
	Meta
	CustomerID string `json:"customer_id,omitempty"`
	ProductID  string `json:"product_id,omitempty"`
	Note       string `json:"note,omitempty"`
}

// Channel is one sales channel (storefront, marketplace, direct message).
type Channel struct {
	Meta
	Name string  `json:"name,omitempty"`
	Fee  float64 `json:"fee,omitempty"`
}

// decodeInto round-trips fields through JSON into the typed view.
// Unknown fields are dropped from the view but survive in the envelope.
func decodeInto(f Fields, v any) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}
	return nil
}

// DecodeOrder decodes the envelope into its typed Order view.
func DecodeOrder(f Fields) (Order, error) {
	var o Order
	err := decodeInto(f, &o)
	return o, err
}

// DecodeCustomer decodes the envelope into its typed Customer view.
func DecodeCustomer(f Fields) (Customer, error) {
	var c Customer
	err := decodeInto(f, &c)
	return c, err
}

// DecodeProduct decodes the envelope into its typed Product view.
func DecodeProduct(f Fields) (Product, error) {
	var p Product
	err := decodeInto(f, &p)
	return p, err
}

// Encode converts a typed entity back into a Fields envelope.
func Encode(v any) (Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	var f Fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode entity: %w", err)
	}
	return f, nil
}

// Validate checks an envelope at the storage facade boundary.
//
// Validation is deliberately shallow: the remote side may carry fields a
// newer deployment added, and deltas must not be rejected for them. Only
// the invariants the sync core relies on are enforced.
func Validate(collection string, f Fields) error {
	if !KnownCollection(collection) {
		return fmt.Errorf("unknown collection %q", collection)
	}
	if f == nil {
		return fmt.Errorf("nil record for collection %q", collection)
	}
	if id, ok := f[FieldID]; ok {
		if _, isStr := id.(string); !isStr {
			return fmt.Errorf("collection %q: id must be a string, got %T", collection, id)
		}
	}
	for _, tsField := range []string{FieldCreatedAt, FieldUpdatedAt} {
		if raw, ok := f[tsField]; ok && raw != nil {
			s, isStr := raw.(string)
			if !isStr {
				return fmt.Errorf("collection %q: %s must be a string timestamp", collection, tsField)
			}
			if s != "" {
				if _, err := time.Parse(time.RFC3339, s); err != nil {
					return fmt.Errorf("collection %q: invalid %s: %w", collection, tsField, err)
				}
			}
		}
	}
	if collection == Orders {
		if raw, ok := f[FieldOrderStatus]; ok && raw != nil {
			s, _ := raw.(string)
			if !ValidStatus(Status(s)) {
				return fmt.Errorf("invalid order_status %q", s)
			}
		}
	}
	return nil
}
