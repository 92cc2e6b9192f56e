package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/madenkorea/api/internal/domain"
	"github.com/madenkorea/api/internal/gateway"
)

// ConfirmPaymentCommand carries the parameters a storefront client submits after
// the gateway checkout completes.
type ConfirmPaymentCommand struct {
	OrderID          string
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	// IncludeTrace asks the service to record and return its step trace.
	IncludeTrace bool
}

// ConfirmPaymentResult reports the outcome of a payment confirmation.
type ConfirmPaymentResult struct {
	Order       domain.Order
	Attribution *domain.Attribution
	Amounts     domain.PaymentAmounts
	// Replayed is true when the payment was already confirmed with the same
	// payment reference and the stored outcome was returned unchanged.
	Replayed    bool
	SideEffects []SideEffectResult
	Trace       []TraceStep
}

// ConfirmationService verifies and finalises gateway payment confirmations.
type ConfirmationService interface {
	ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (ConfirmPaymentResult, error)
}

// ResolvedAttribution is the outcome of walking the attribution sources for an order.
type ResolvedAttribution struct {
	InfluencerID      *string
	PromoCodeID       *string
	DiscountPercent   decimal.Decimal
	CommissionPercent decimal.Decimal
	// Source names which resolution step produced the result.
	Source string
	// Existing is set when an attribution record already existed for the order.
	Existing *domain.Attribution
}

// AttributionResolver walks the attribution sources for an order in priority order.
// The boolean result reports whether any source produced an attribution.
type AttributionResolver interface {
	Resolve(ctx context.Context, order domain.Order, gatewayOrder gateway.Order) (ResolvedAttribution, bool, error)
}

// SideEffectInput bundles everything the post-payment steps need.
type SideEffectInput struct {
	Order       domain.Order
	Attribution *domain.Attribution
	Amounts     domain.PaymentAmounts
	// IncrementPromoID names the promo whose usage counter should be bumped,
	// empty when the confirmation was a replay or carried no promo.
	IncrementPromoID string
}

// SideEffectResult records the outcome of a single post-payment step.
type SideEffectResult struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"-"`
}

// SideEffectRunner executes the post-payment steps. Failures are captured per
// step and never abort the remaining steps.
type SideEffectRunner interface {
	Run(ctx context.Context, input SideEffectInput) []SideEffectResult
}
