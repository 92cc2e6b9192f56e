package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/madenkorea/api/internal/domain"
	"github.com/madenkorea/api/internal/gateway"
	"github.com/madenkorea/api/internal/repositories"
)

// Attribution sources, in resolution priority order.
const (
	AttributionSourceExisting     = "existing_record"
	AttributionSourceOrderPromo   = "order_promo"
	AttributionSourceGatewayNotes = "gateway_notes"
)

// Gateway note keys consulted when checkout metadata carries a promo reference.
const (
	noteKeyType       = "type"
	noteKeyPromoID    = "promo_code_id"
	noteKeyInfluencer = "influencer_id"

	noteTypePromo = "promo"
)

// ErrAttributionUnavailable signals a persistence failure while resolving attribution.
var ErrAttributionUnavailable = errors.New("attribution: repository unavailable")

// AttributionResolverDeps bundles collaborators for the resolver.
type AttributionResolverDeps struct {
	Attributions repositories.AttributionRepository
	PromoCodes   repositories.PromoCodeRepository
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

type attributionResolver struct {
	attributions repositories.AttributionRepository
	promoCodes   repositories.PromoCodeRepository
	logger       func(context.Context, string, map[string]any)
}

// NewAttributionResolver wires dependencies into a concrete AttributionResolver.
func NewAttributionResolver(deps AttributionResolverDeps) (AttributionResolver, error) {
	if deps.Attributions == nil {
		return nil, errors.New("attribution resolver: attribution repository is required")
	}
	if deps.PromoCodes == nil {
		return nil, errors.New("attribution resolver: promo code repository is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &attributionResolver{
		attributions: deps.Attributions,
		promoCodes:   deps.PromoCodes,
		logger:       logger,
	}, nil
}

// Resolve walks the attribution sources in priority order: an existing record
// that already names an influencer wins outright, then the promo bound to the
// order at checkout, then a promo declared in the gateway order notes. The
// promo document is always re-read; a miss at any step logs and falls through
// to the next one.
func (r *attributionResolver) Resolve(ctx context.Context, order domain.Order, gatewayOrder gateway.Order) (ResolvedAttribution, bool, error) {
	existing, found, err := r.findExisting(ctx, order)
	if err != nil {
		return ResolvedAttribution{}, false, err
	}
	if found {
		return existing, true, nil
	}

	fromOrder, found, err := r.resolveFromOrder(ctx, order)
	if err != nil {
		return ResolvedAttribution{}, false, err
	}
	if found {
		return fromOrder, true, nil
	}

	fromNotes, found, err := r.resolveFromGatewayNotes(ctx, order, gatewayOrder)
	if err != nil {
		return ResolvedAttribution{}, false, err
	}
	if found {
		return fromNotes, true, nil
	}

	return ResolvedAttribution{}, false, nil
}

func (r *attributionResolver) findExisting(ctx context.Context, order domain.Order) (ResolvedAttribution, bool, error) {
	attribution, err := r.attributions.FindByOrder(ctx, order.ID)
	if err != nil {
		if isNotFound(err) {
			return ResolvedAttribution{}, false, nil
		}
		return ResolvedAttribution{}, false, fmt.Errorf("%w: %v", ErrAttributionUnavailable, err)
	}

	// A stored record only settles the question when it names an influencer;
	// otherwise the later sources get a chance to find one.
	if attribution.InfluencerID == nil || strings.TrimSpace(*attribution.InfluencerID) == "" {
		r.logger(ctx, "attribution.existing_without_influencer", map[string]any{
			"orderId": order.ID,
		})
		return ResolvedAttribution{}, false, nil
	}

	record := attribution
	return ResolvedAttribution{
		InfluencerID:      attribution.InfluencerID,
		PromoCodeID:       attribution.PromoCodeID,
		DiscountPercent:   attribution.DiscountPercent,
		CommissionPercent: attribution.CommissionPercent,
		Source:            AttributionSourceExisting,
		Existing:          &record,
	}, true, nil
}

func (r *attributionResolver) resolveFromOrder(ctx context.Context, order domain.Order) (ResolvedAttribution, bool, error) {
	promoID := ""
	if order.PromoCodeRef != nil {
		promoID = strings.TrimSpace(*order.PromoCodeRef)
	}
	if promoID == "" && order.PromoSnapshot != nil {
		promoID = strings.TrimSpace(order.PromoSnapshot.PromoID)
	}
	if promoID == "" {
		return ResolvedAttribution{}, false, nil
	}

	promo, err := r.promoCodes.FindByID(ctx, promoID)
	if err != nil {
		if !isNotFound(err) {
			return ResolvedAttribution{}, false, fmt.Errorf("%w: %v", ErrAttributionUnavailable, err)
		}
		// Percentages always come from the live promo document. When it is
		// gone there is nothing current to attribute against, so this source
		// yields nothing and the notes get their turn.
		r.logger(ctx, "attribution.promo_missing", map[string]any{
			"orderId": order.ID,
			"promoId": promoID,
		})
		return ResolvedAttribution{}, false, nil
	}

	return resolvedFromPromo(promo, AttributionSourceOrderPromo), true, nil
}

func (r *attributionResolver) resolveFromGatewayNotes(ctx context.Context, order domain.Order, gatewayOrder gateway.Order) (ResolvedAttribution, bool, error) {
	// The notes bag only counts when checkout tagged it as a promo and named
	// both the promo document and the influencer.
	if !strings.EqualFold(strings.TrimSpace(gatewayOrder.NoteString(noteKeyType)), noteTypePromo) {
		return ResolvedAttribution{}, false, nil
	}
	promoID := strings.TrimSpace(gatewayOrder.NoteString(noteKeyPromoID))
	influencerID := strings.TrimSpace(gatewayOrder.NoteString(noteKeyInfluencer))
	if promoID == "" || influencerID == "" {
		return ResolvedAttribution{}, false, nil
	}

	promo, err := r.promoCodes.FindByID(ctx, promoID)
	if err != nil {
		if isNotFound(err) {
			r.logger(ctx, "attribution.note_promo_unknown", map[string]any{
				"orderId": order.ID,
				"promoId": promoID,
			})
			return ResolvedAttribution{}, false, nil
		}
		return ResolvedAttribution{}, false, fmt.Errorf("%w: %v", ErrAttributionUnavailable, err)
	}

	// A promo surfacing only in gateway notes was never validated at checkout,
	// so an inactive one earns nothing here.
	if !promo.Active {
		r.logger(ctx, "attribution.note_promo_inactive", map[string]any{
			"orderId": order.ID,
			"promoId": promo.ID,
		})
		return ResolvedAttribution{}, false, nil
	}

	return resolvedFromPromo(promo, AttributionSourceGatewayNotes), true, nil
}

func resolvedFromPromo(promo domain.PromoCode, source string) ResolvedAttribution {
	resolved := ResolvedAttribution{
		DiscountPercent:   promo.DiscountPercent,
		CommissionPercent: promo.CommissionPercent,
		Source:            source,
	}
	promoID := promo.ID
	resolved.PromoCodeID = &promoID
	if influencerID := strings.TrimSpace(promo.InfluencerID); influencerID != "" {
		resolved.InfluencerID = &influencerID
	}
	return resolved
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
