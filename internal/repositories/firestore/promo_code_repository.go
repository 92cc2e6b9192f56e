package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/madenkorea/api/internal/domain"
	pfirestore "github.com/madenkorea/api/internal/platform/firestore"
)

const promoCodesCollection = "promo_codes"

type promoCodeDocument struct {
	Code              string    `firestore:"code"`
	InfluencerID      string    `firestore:"influencerId,omitempty"`
	DiscountPercent   string    `firestore:"discountPercent"`
	CommissionPercent string    `firestore:"commissionPercent"`
	UsageCount        int64     `firestore:"usageCount"`
	Active            bool      `firestore:"active"`
	CreatedAt         time.Time `firestore:"createdAt"`
	UpdatedAt         time.Time `firestore:"updatedAt"`
}

// PromoCodeRepository reads promo code definitions from Firestore.
type PromoCodeRepository struct {
	base *pfirestore.BaseRepository[promoCodeDocument]
}

// NewPromoCodeRepository constructs a Firestore-backed promo code repository.
func NewPromoCodeRepository(provider *pfirestore.Provider) (*PromoCodeRepository, error) {
	if provider == nil {
		return nil, errors.New("promo code repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[promoCodeDocument](provider, promoCodesCollection)
	return &PromoCodeRepository{base: base}, nil
}

// FindByID loads the promo code identified by promoID.
func (r *PromoCodeRepository) FindByID(ctx context.Context, promoID string) (domain.PromoCode, error) {
	if r == nil || r.base == nil {
		return domain.PromoCode{}, errors.New("promo code repository not initialised")
	}
	id := strings.TrimSpace(promoID)
	if id == "" {
		return domain.PromoCode{}, errors.New("promo code repository: promo id is required")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.PromoCode{}, err
	}
	return promoCodeFromDocument(doc.ID, doc.Data)
}

// IncrementUsage bumps the redemption counter for the promo code.
func (r *PromoCodeRepository) IncrementUsage(ctx context.Context, promoID string) error {
	if r == nil || r.base == nil {
		return errors.New("promo code repository not initialised")
	}
	id := strings.TrimSpace(promoID)
	if id == "" {
		return errors.New("promo code repository: promo id is required")
	}

	_, err := r.base.Update(ctx, id, []firestore.Update{
		{Path: "usageCount", Value: firestore.Increment(1)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return err
}

func promoCodeFromDocument(id string, doc promoCodeDocument) (domain.PromoCode, error) {
	discount, err := parseDecimalField("promoCode.discountPercent", doc.DiscountPercent)
	if err != nil {
		return domain.PromoCode{}, err
	}
	commission, err := parseDecimalField("promoCode.commissionPercent", doc.CommissionPercent)
	if err != nil {
		return domain.PromoCode{}, err
	}
	return domain.PromoCode{
		ID:                id,
		Code:              doc.Code,
		InfluencerID:      doc.InfluencerID,
		DiscountPercent:   discount,
		CommissionPercent: commission,
		UsageCount:        doc.UsageCount,
		Active:            doc.Active,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}, nil
}
