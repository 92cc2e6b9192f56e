package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates the lifecycle states an order moves through.
type OrderStatus string

const (
	// OrderStatusCreated marks a freshly created order awaiting checkout completion.
	OrderStatusCreated OrderStatus = "created"
	// OrderStatusPendingPayment marks an order whose gateway session exists but has not been captured.
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	// OrderStatusPaid marks an order with a confirmed, captured payment.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusCancelled marks an order cancelled before payment.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusFailed marks an order whose payment attempt terminally failed.
	OrderStatusFailed OrderStatus = "failed"
)

// Payable reports whether a payment confirmation may transition the order to paid.
func (s OrderStatus) Payable() bool {
	return s == OrderStatusCreated || s == OrderStatusPendingPayment
}

// Order is the order header as persisted by the order store.
type Order struct {
	ID             string
	OrderNumber    string
	UserID         *string // nil for guest checkouts
	Currency       string
	Subtotal       decimal.Decimal
	ShippingFee    decimal.Decimal
	DiscountTotal  decimal.Decimal
	Total          decimal.Decimal
	Status         OrderStatus
	PromoCodeRef   *string
	PromoSnapshot  *PromoSnapshot
	GatewayOrderID string
	PaymentMethod  string
	PaymentRef     string
	GatewayPayload map[string]any
	CartRef        *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PaidAt         *time.Time
}

// PromoSnapshot is the denormalised copy of promo terms taken at order-creation time.
// Percentages here may be stale; resolution always re-reads the promo document and
// only uses the snapshot to identify which promo to look up.
type PromoSnapshot struct {
	PromoID           string
	Code              string
	InfluencerID      string
	DiscountPercent   decimal.Decimal
	CommissionPercent decimal.Decimal
}

// PromoCode is an influencer-owned promotional code.
type PromoCode struct {
	ID                string
	Code              string
	InfluencerID      string
	DiscountPercent   decimal.Decimal
	CommissionPercent decimal.Decimal
	UsageCount        int64
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AttributionStatus enumerates commission settlement states.
type AttributionStatus string

const (
	// AttributionStatusPending marks a commission awaiting settlement.
	AttributionStatusPending AttributionStatus = "pending"
	// AttributionStatusSettled marks a commission paid out to the influencer.
	AttributionStatusSettled AttributionStatus = "settled"
	// AttributionStatusVoid marks a commission cancelled (refund, fraud).
	AttributionStatusVoid AttributionStatus = "void"
)

// Attribution links an order to the influencer and promo responsible for it,
// including the commission terms in effect when the payment was confirmed.
// At most one attribution exists per order.
type Attribution struct {
	OrderID           string
	InfluencerID      *string
	PromoCodeID       *string
	DiscountPercent   decimal.Decimal
	CommissionPercent decimal.Decimal
	CommissionAmount  decimal.Decimal
	Currency          string
	Status            AttributionStatus
	Source            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NormalizeCurrency upper-cases and trims an ISO currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
