package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/madenkorea/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// OrderPaidUpdate carries the fields applied when an order transitions to paid.
type OrderPaidUpdate struct {
	PaymentRef     string
	PaymentMethod  string
	GatewayPayload map[string]any
	DiscountTotal  decimal.Decimal
	Total          decimal.Decimal
	PaidAt         time.Time
}

// OrderRepository persists storefront orders.
type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	// MarkPaid transitions the order to paid inside a transaction. The write
	// only applies while the stored status is still payable; a concurrent
	// transition surfaces as a conflict error.
	MarkPaid(ctx context.Context, orderID string, update OrderPaidUpdate) (domain.Order, error)
}

// AttributionRepository persists commission attribution records keyed by order.
type AttributionRepository interface {
	FindByOrder(ctx context.Context, orderID string) (domain.Attribution, error)
	Upsert(ctx context.Context, attribution domain.Attribution) (domain.Attribution, error)
}

// PromoCodeRepository reads promo code definitions and tracks redemption counts.
type PromoCodeRepository interface {
	FindByID(ctx context.Context, promoID string) (domain.PromoCode, error)
	IncrementUsage(ctx context.Context, promoID string) error
}

// CartRepository clears a user's cart once the order that consumed it is paid.
type CartRepository interface {
	Clear(ctx context.Context, userID string) error
}
