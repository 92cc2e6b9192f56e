package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/madenkorea/api/internal/domain"
	pfirestore "github.com/madenkorea/api/internal/platform/firestore"
	"github.com/madenkorea/api/internal/repositories"
)

const ordersCollection = "orders"

type orderDocument struct {
	OrderNumber    string                 `firestore:"orderNumber"`
	UserID         string                 `firestore:"userId,omitempty"`
	Currency       string                 `firestore:"currency"`
	Subtotal       string                 `firestore:"subtotal"`
	ShippingFee    string                 `firestore:"shippingFee"`
	DiscountTotal  string                 `firestore:"discountTotal"`
	Total          string                 `firestore:"total"`
	Status         string                 `firestore:"status"`
	PromoCodeRef   string                 `firestore:"promoCodeRef,omitempty"`
	PromoSnapshot  *promoSnapshotDocument `firestore:"promoSnapshot,omitempty"`
	GatewayOrderID string                 `firestore:"gatewayOrderId"`
	PaymentMethod  string                 `firestore:"paymentMethod,omitempty"`
	PaymentRef     string                 `firestore:"paymentRef,omitempty"`
	GatewayPayload map[string]any         `firestore:"gatewayPayload,omitempty"`
	CartRef        string                 `firestore:"cartRef,omitempty"`
	CreatedAt      time.Time              `firestore:"createdAt"`
	UpdatedAt      time.Time              `firestore:"updatedAt"`
	PaidAt         *time.Time             `firestore:"paidAt,omitempty"`
}

type promoSnapshotDocument struct {
	PromoID           string `firestore:"promoId"`
	Code              string `firestore:"code"`
	InfluencerID      string `firestore:"influencerId,omitempty"`
	DiscountPercent   string `firestore:"discountPercent"`
	CommissionPercent string `firestore:"commissionPercent"`
}

// OrderRepository implements repositories.OrderRepository backed by Firestore.
type OrderRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection)
	return &OrderRepository{
		provider: provider,
		base:     base,
	}, nil
}

// FindByID loads the order identified by orderID.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return orderFromDocument(doc.ID, doc.Data)
}

// MarkPaid transitions the order to paid inside a transaction. The stored status is
// re-read under the transaction so a concurrent transition loses the race cleanly.
func (r *OrderRepository) MarkPaid(ctx context.Context, orderID string, update repositories.OrderPaidUpdate) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	paidAt := update.PaidAt.UTC()
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	var updated domain.Order
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}

		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var doc orderDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return fmt.Errorf("firestore orders decode %s: %w", id, err)
		}

		if !domain.OrderStatus(doc.Status).Payable() {
			return status.Errorf(codes.FailedPrecondition, "order %s is not payable in status %s", id, doc.Status)
		}

		updates := []firestore.Update{
			{Path: "status", Value: string(domain.OrderStatusPaid)},
			{Path: "paymentRef", Value: update.PaymentRef},
			{Path: "discountTotal", Value: update.DiscountTotal.String()},
			{Path: "total", Value: update.Total.String()},
			{Path: "paidAt", Value: paidAt},
			{Path: "updatedAt", Value: paidAt},
		}
		if method := strings.TrimSpace(update.PaymentMethod); method != "" {
			updates = append(updates, firestore.Update{Path: "paymentMethod", Value: method})
		}
		if len(update.GatewayPayload) > 0 {
			updates = append(updates, firestore.Update{Path: "gatewayPayload", Value: update.GatewayPayload})
		}
		if err := tx.Update(ref, updates); err != nil {
			return err
		}

		doc.Status = string(domain.OrderStatusPaid)
		doc.PaymentRef = update.PaymentRef
		if method := strings.TrimSpace(update.PaymentMethod); method != "" {
			doc.PaymentMethod = method
		}
		if len(update.GatewayPayload) > 0 {
			doc.GatewayPayload = update.GatewayPayload
		}
		doc.DiscountTotal = update.DiscountTotal.String()
		doc.Total = update.Total.String()
		doc.PaidAt = &paidAt
		doc.UpdatedAt = paidAt

		updated, err = orderFromDocument(id, doc)
		return err
	})
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.markPaid", err)
	}
	return updated, nil
}

func orderFromDocument(id string, doc orderDocument) (domain.Order, error) {
	subtotal, err := parseDecimalField("subtotal", doc.Subtotal)
	if err != nil {
		return domain.Order{}, err
	}
	shippingFee, err := parseDecimalField("shippingFee", doc.ShippingFee)
	if err != nil {
		return domain.Order{}, err
	}
	discountTotal, err := parseDecimalField("discountTotal", doc.DiscountTotal)
	if err != nil {
		return domain.Order{}, err
	}
	total, err := parseDecimalField("total", doc.Total)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:             id,
		OrderNumber:    doc.OrderNumber,
		Currency:       domain.NormalizeCurrency(doc.Currency),
		Subtotal:       subtotal,
		ShippingFee:    shippingFee,
		DiscountTotal:  discountTotal,
		Total:          total,
		Status:         domain.OrderStatus(doc.Status),
		GatewayOrderID: doc.GatewayOrderID,
		PaymentMethod:  doc.PaymentMethod,
		PaymentRef:     doc.PaymentRef,
		GatewayPayload: doc.GatewayPayload,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
		PaidAt:         doc.PaidAt,
	}

	if userID := strings.TrimSpace(doc.UserID); userID != "" {
		order.UserID = &userID
	}
	if promoRef := strings.TrimSpace(doc.PromoCodeRef); promoRef != "" {
		order.PromoCodeRef = &promoRef
	}
	if cartRef := strings.TrimSpace(doc.CartRef); cartRef != "" {
		order.CartRef = &cartRef
	}
	if doc.PromoSnapshot != nil {
		snapshot, err := promoSnapshotFromDocument(*doc.PromoSnapshot)
		if err != nil {
			return domain.Order{}, err
		}
		order.PromoSnapshot = &snapshot
	}

	return order, nil
}

func promoSnapshotFromDocument(doc promoSnapshotDocument) (domain.PromoSnapshot, error) {
	discount, err := parseDecimalField("promoSnapshot.discountPercent", doc.DiscountPercent)
	if err != nil {
		return domain.PromoSnapshot{}, err
	}
	commission, err := parseDecimalField("promoSnapshot.commissionPercent", doc.CommissionPercent)
	if err != nil {
		return domain.PromoSnapshot{}, err
	}
	return domain.PromoSnapshot{
		PromoID:           doc.PromoID,
		Code:              doc.Code,
		InfluencerID:      doc.InfluencerID,
		DiscountPercent:   discount,
		CommissionPercent: commission,
	}, nil
}

func parseDecimalField(field, value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("firestore: invalid decimal in %s: %w", field, err)
	}
	return parsed, nil
}
