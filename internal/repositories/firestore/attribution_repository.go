package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/madenkorea/api/internal/domain"
	pfirestore "github.com/madenkorea/api/internal/platform/firestore"
)

const attributionsCollection = "attributions"

type attributionDocument struct {
	OrderID           string    `firestore:"orderId"`
	InfluencerID      string    `firestore:"influencerId,omitempty"`
	PromoCodeID       string    `firestore:"promoCodeId,omitempty"`
	DiscountPercent   string    `firestore:"discountPercent"`
	CommissionPercent string    `firestore:"commissionPercent"`
	CommissionAmount  string    `firestore:"commissionAmount"`
	Currency          string    `firestore:"currency"`
	Status            string    `firestore:"status"`
	Source            string    `firestore:"source"`
	CreatedAt         time.Time `firestore:"createdAt"`
	UpdatedAt         time.Time `firestore:"updatedAt"`
}

// AttributionRepository persists commission attribution records. Documents are
// keyed by order ID so each order carries at most one attribution.
type AttributionRepository struct {
	base *pfirestore.BaseRepository[attributionDocument]
}

// NewAttributionRepository constructs a Firestore-backed attribution repository.
func NewAttributionRepository(provider *pfirestore.Provider) (*AttributionRepository, error) {
	if provider == nil {
		return nil, errors.New("attribution repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[attributionDocument](provider, attributionsCollection)
	return &AttributionRepository{base: base}, nil
}

// FindByOrder returns the attribution recorded for the supplied order.
func (r *AttributionRepository) FindByOrder(ctx context.Context, orderID string) (domain.Attribution, error) {
	if r == nil || r.base == nil {
		return domain.Attribution{}, errors.New("attribution repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Attribution{}, errors.New("attribution repository: order id is required")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Attribution{}, err
	}
	return attributionFromDocument(doc.Data)
}

// Upsert writes the attribution record, replacing any previous record for the same order.
func (r *AttributionRepository) Upsert(ctx context.Context, attribution domain.Attribution) (domain.Attribution, error) {
	if r == nil || r.base == nil {
		return domain.Attribution{}, errors.New("attribution repository not initialised")
	}
	orderID := strings.TrimSpace(attribution.OrderID)
	if orderID == "" {
		return domain.Attribution{}, errors.New("attribution repository: order id is required")
	}

	now := time.Now().UTC()
	createdAt := attribution.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = now
	}

	doc := attributionDocument{
		OrderID:           orderID,
		DiscountPercent:   attribution.DiscountPercent.String(),
		CommissionPercent: attribution.CommissionPercent.String(),
		CommissionAmount:  attribution.CommissionAmount.String(),
		Currency:          domain.NormalizeCurrency(attribution.Currency),
		Status:            string(attribution.Status),
		Source:            attribution.Source,
		CreatedAt:         createdAt,
		UpdatedAt:         now,
	}
	if attribution.InfluencerID != nil {
		doc.InfluencerID = strings.TrimSpace(*attribution.InfluencerID)
	}
	if attribution.PromoCodeID != nil {
		doc.PromoCodeID = strings.TrimSpace(*attribution.PromoCodeID)
	}

	if _, err := r.base.Set(ctx, orderID, doc); err != nil {
		return domain.Attribution{}, err
	}
	return attributionFromDocument(doc)
}

func attributionFromDocument(doc attributionDocument) (domain.Attribution, error) {
	discount, err := parseDecimalField("attribution.discountPercent", doc.DiscountPercent)
	if err != nil {
		return domain.Attribution{}, err
	}
	commissionPct, err := parseDecimalField("attribution.commissionPercent", doc.CommissionPercent)
	if err != nil {
		return domain.Attribution{}, err
	}
	commissionAmt, err := parseDecimalField("attribution.commissionAmount", doc.CommissionAmount)
	if err != nil {
		return domain.Attribution{}, err
	}

	attribution := domain.Attribution{
		OrderID:           doc.OrderID,
		DiscountPercent:   discount,
		CommissionPercent: commissionPct,
		CommissionAmount:  commissionAmt,
		Currency:          domain.NormalizeCurrency(doc.Currency),
		Status:            domain.AttributionStatus(doc.Status),
		Source:            doc.Source,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
	if influencerID := strings.TrimSpace(doc.InfluencerID); influencerID != "" {
		attribution.InfluencerID = &influencerID
	}
	if promoID := strings.TrimSpace(doc.PromoCodeID); promoID != "" {
		attribution.PromoCodeID = &promoID
	}
	return attribution, nil
}
