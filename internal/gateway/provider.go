package gateway

import (
	"context"
	"errors"
	"strings"
	"time"
)

// OrderStatus enumerates the gateway-side order states we care about.
type OrderStatus string

const (
	// OrderStatusCreated indicates the gateway order exists but no payment was attempted.
	OrderStatusCreated OrderStatus = "created"
	// OrderStatusAttempted indicates at least one payment attempt was made.
	OrderStatusAttempted OrderStatus = "attempted"
	// OrderStatusPaid indicates the gateway captured the full order amount.
	OrderStatusPaid OrderStatus = "paid"
)

var (
	// ErrOrderNotFound is returned when the gateway does not know the order id.
	ErrOrderNotFound = errors.New("gateway: order not found")
	// ErrUnavailable is returned for transport failures and gateway 5xx responses.
	ErrUnavailable = errors.New("gateway: unavailable")
)

// Order is the gateway's record of an order, fetched for reconciliation.
// Amounts are in minor units (paise) as reported by the gateway.
type Order struct {
	ID              string
	Status          OrderStatus
	AmountMinor     int64
	AmountPaidMinor int64
	Currency        string
	Receipt         string
	Notes           map[string]any
	CreatedAt       time.Time
}

// NoteString extracts a string-valued entry from the order notes bag.
func (o Order) NoteString(key string) string {
	if o.Notes == nil {
		return ""
	}
	value, ok := o.Notes[key]
	if !ok {
		return ""
	}
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Provider is the contract a payment gateway adapter implements.
type Provider interface {
	// FetchOrder retrieves the gateway order for captured-amount reconciliation
	// and for the notes bag carried from checkout-session creation.
	FetchOrder(ctx context.Context, gatewayOrderID string) (Order, error)
}
