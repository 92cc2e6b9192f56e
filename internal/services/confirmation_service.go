package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/madenkorea/api/internal/domain"
	"github.com/madenkorea/api/internal/gateway"
	"github.com/madenkorea/api/internal/repositories"
)

const paymentMethodGateway = "razorpay"

var (
	// ErrPaymentInvalidInput signals the caller provided invalid or mismatched data.
	ErrPaymentInvalidInput = errors.New("payment: invalid input")
	// ErrPaymentSignatureMismatch indicates the gateway signature failed verification.
	ErrPaymentSignatureMismatch = errors.New("payment: signature mismatch")
	// ErrPaymentOrderNotFound indicates the order could not be located.
	ErrPaymentOrderNotFound = errors.New("payment: order not found")
	// ErrPaymentOrderNotPayable indicates the order is in a state that cannot accept payment.
	ErrPaymentOrderNotPayable = errors.New("payment: order not payable")
	// ErrPaymentConflict indicates a concurrent confirmation or a conflicting payment reference.
	ErrPaymentConflict = errors.New("payment: conflict")
	// ErrPaymentNotCaptured indicates the gateway has not captured the payment.
	ErrPaymentNotCaptured = errors.New("payment: not captured")
	// ErrPaymentGatewayUnavailable indicates the gateway could not be reached.
	ErrPaymentGatewayUnavailable = errors.New("payment: gateway unavailable")
	// ErrPaymentUnavailable indicates a persistence failure during confirmation.
	ErrPaymentUnavailable = errors.New("payment: repository unavailable")
)

// ConfirmationServiceDeps bundles collaborators required to construct the confirmation service.
type ConfirmationServiceDeps struct {
	Orders        repositories.OrderRepository
	Attributions  repositories.AttributionRepository
	Resolver      AttributionResolver
	Gateway       gateway.Provider
	SideEffects   SideEffectRunner
	WebhookSecret string
	Clock         func() time.Time
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type confirmationService struct {
	orders        repositories.OrderRepository
	attributions  repositories.AttributionRepository
	resolver      AttributionResolver
	gateway       gateway.Provider
	sideEffects   SideEffectRunner
	webhookSecret string
	clock         func() time.Time
	logger        func(context.Context, string, map[string]any)
}

// NewConfirmationService wires dependencies into a concrete ConfirmationService.
func NewConfirmationService(deps ConfirmationServiceDeps) (ConfirmationService, error) {
	if deps.Orders == nil {
		return nil, errors.New("confirmation service: order repository is required")
	}
	if deps.Attributions == nil {
		return nil, errors.New("confirmation service: attribution repository is required")
	}
	if deps.Resolver == nil {
		return nil, errors.New("confirmation service: attribution resolver is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("confirmation service: gateway provider is required")
	}
	if strings.TrimSpace(deps.WebhookSecret) == "" {
		return nil, errors.New("confirmation service: webhook secret is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &confirmationService{
		orders:        deps.Orders,
		attributions:  deps.Attributions,
		resolver:      deps.Resolver,
		gateway:       deps.Gateway,
		sideEffects:   deps.SideEffects,
		webhookSecret: deps.WebhookSecret,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// ConfirmPayment verifies the gateway signature, transitions the order to paid
// exactly once, resolves commission attribution, and kicks off best-effort
// post-payment steps. Replaying a confirmation with the same payment reference
// returns the stored outcome without re-running the transition.
func (s *confirmationService) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (ConfirmPaymentResult, error) {
	if err := validateConfirmCommand(cmd); err != nil {
		return ConfirmPaymentResult{}, err
	}

	var trace *TraceRecorder
	if cmd.IncludeTrace {
		trace = NewTraceRecorder(s.clock)
	}

	finish := trace.Step("verify_signature")
	if !gateway.VerifyPaymentSignature(cmd.GatewayOrderID, cmd.GatewayPaymentID, cmd.GatewaySignature, []byte(s.webhookSecret)) {
		finish(TraceStatusFailed, "signature mismatch")
		s.logger(ctx, "payment.signature_mismatch", map[string]any{
			"orderId":        cmd.OrderID,
			"gatewayOrderId": cmd.GatewayOrderID,
		})
		return s.fail(trace, ErrPaymentSignatureMismatch)
	}
	finish(TraceStatusOK, "")

	finish = trace.Step("load_order")
	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		finish(TraceStatusFailed, "order lookup failed")
		return s.fail(trace, s.mapRepositoryError(err))
	}
	finish(TraceStatusOK, "")

	if !strings.EqualFold(strings.TrimSpace(order.GatewayOrderID), cmd.GatewayOrderID) {
		trace.Record("match_gateway_order", TraceStatusFailed, "gateway order mismatch")
		return s.fail(trace, fmt.Errorf("%w: gateway order does not belong to order %s", ErrPaymentInvalidInput, cmd.OrderID))
	}

	if order.Status == domain.OrderStatusPaid {
		return s.replay(ctx, order, cmd, trace)
	}
	if !order.Status.Payable() {
		trace.Record("check_payable", TraceStatusFailed, string(order.Status))
		return s.fail(trace, fmt.Errorf("%w: order %s is %s", ErrPaymentOrderNotPayable, order.ID, order.Status))
	}

	finish = trace.Step("fetch_gateway_order")
	gatewayOrder, err := s.gateway.FetchOrder(ctx, cmd.GatewayOrderID)
	if err != nil {
		finish(TraceStatusFailed, "gateway fetch failed")
		return s.fail(trace, s.mapGatewayError(err))
	}
	finish(TraceStatusOK, string(gatewayOrder.Status))

	if gatewayOrder.Status != gateway.OrderStatusPaid {
		trace.Record("check_captured", TraceStatusFailed, string(gatewayOrder.Status))
		return s.fail(trace, fmt.Errorf("%w: gateway reports status %s", ErrPaymentNotCaptured, gatewayOrder.Status))
	}

	finish = trace.Step("resolve_attribution")
	resolved, attributed, err := s.resolver.Resolve(ctx, order, gatewayOrder)
	if err != nil {
		finish(TraceStatusFailed, "attribution resolution failed")
		return s.fail(trace, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err))
	}
	if attributed {
		finish(TraceStatusOK, resolved.Source)
	} else {
		finish(TraceStatusSkipped, "no attribution source")
	}

	amounts := s.computeAmounts(order, resolved, attributed, gatewayOrder)

	finish = trace.Step("mark_paid")
	now := s.clock()
	updated, err := s.orders.MarkPaid(ctx, order.ID, repositories.OrderPaidUpdate{
		PaymentRef:     cmd.GatewayPaymentID,
		PaymentMethod:  paymentMethodGateway,
		GatewayPayload: gatewayPayload(cmd, gatewayOrder),
		DiscountTotal:  amounts.DiscountAmount,
		Total:          amounts.PaidTotal,
		PaidAt:         now,
	})
	if err != nil {
		if isConflict(err) {
			finish(TraceStatusFailed, "lost transition race")
			return s.recoverConflict(ctx, cmd, trace)
		}
		finish(TraceStatusFailed, "mark paid failed")
		return s.fail(trace, s.mapRepositoryError(err))
	}
	finish(TraceStatusOK, "")

	result := ConfirmPaymentResult{
		Order:   updated,
		Amounts: amounts,
	}

	incrementPromoID := ""
	if attributed && !hasInfluencer(resolved) {
		// The discount stands, but a commission record needs someone to pay.
		trace.Record("write_attribution", TraceStatusSkipped, "no influencer resolved")
	}
	if attributed && hasInfluencer(resolved) {
		finish = trace.Step("write_attribution")
		attribution, err := s.writeAttribution(ctx, updated, resolved, now)
		if err != nil {
			// The payment is committed; the attribution write self-heals on replay.
			finish(TraceStatusFailed, "attribution write failed")
			s.logger(ctx, "payment.attribution_write_failed", map[string]any{
				"orderId": updated.ID,
				"error":   err.Error(),
			})
		} else {
			finish(TraceStatusOK, resolved.Source)
			result.Attribution = &attribution
			if resolved.Existing == nil && resolved.PromoCodeID != nil {
				incrementPromoID = *resolved.PromoCodeID
			}
		}
	}

	if s.sideEffects != nil {
		result.SideEffects = s.sideEffects.Run(ctx, SideEffectInput{
			Order:            updated,
			Attribution:      result.Attribution,
			Amounts:          amounts,
			IncrementPromoID: incrementPromoID,
		})
	}

	s.logger(ctx, "payment.confirmed", map[string]any{
		"orderId":    updated.ID,
		"paymentRef": updated.PaymentRef,
		"total":      amounts.PaidTotal.StringFixed(2),
		"attributed": result.Attribution != nil,
	})

	result.Trace = trace.Steps()
	return result, nil
}

// replay returns the stored outcome for an already confirmed payment. A missing
// attribution record is recomputed so a crash between the paid transition and
// the attribution write heals on the retry.
func (s *confirmationService) replay(ctx context.Context, order domain.Order, cmd ConfirmPaymentCommand, trace *TraceRecorder) (ConfirmPaymentResult, error) {
	if !strings.EqualFold(strings.TrimSpace(order.PaymentRef), cmd.GatewayPaymentID) {
		trace.Record("replay", TraceStatusFailed, "payment reference mismatch")
		return s.fail(trace, fmt.Errorf("%w: order %s already paid with a different payment", ErrPaymentConflict, order.ID))
	}
	trace.Record("replay", TraceStatusOK, "already confirmed")

	result := ConfirmPaymentResult{
		Order:    order,
		Amounts:  replayAmounts(order),
		Replayed: true,
	}

	attribution, err := s.attributions.FindByOrder(ctx, order.ID)
	switch {
	case err == nil:
		result.Attribution = &attribution
	case isNotFound(err):
		repaired, ok := s.repairAttribution(ctx, order, trace)
		if ok {
			result.Attribution = &repaired
		}
	default:
		s.logger(ctx, "payment.replay_attribution_lookup_failed", map[string]any{
			"orderId": order.ID,
			"error":   err.Error(),
		})
	}

	result.Trace = trace.Steps()
	return result, nil
}

func (s *confirmationService) repairAttribution(ctx context.Context, order domain.Order, trace *TraceRecorder) (domain.Attribution, bool) {
	finish := trace.Step("repair_attribution")

	gatewayOrder, err := s.gateway.FetchOrder(ctx, order.GatewayOrderID)
	if err != nil {
		// Resolution can still succeed from the order itself.
		gatewayOrder = gateway.Order{}
	}

	resolved, attributed, err := s.resolver.Resolve(ctx, order, gatewayOrder)
	if err != nil || !attributed || !hasInfluencer(resolved) {
		finish(TraceStatusSkipped, "nothing to repair")
		return domain.Attribution{}, false
	}

	attribution, err := s.writeAttribution(ctx, order, resolved, s.clock())
	if err != nil {
		finish(TraceStatusFailed, "attribution write failed")
		return domain.Attribution{}, false
	}
	finish(TraceStatusOK, resolved.Source)
	return attribution, true
}

// recoverConflict re-reads the order after losing the paid transition race. A
// concurrent confirmation with the same payment reference is a replay; anything
// else is a genuine conflict.
func (s *confirmationService) recoverConflict(ctx context.Context, cmd ConfirmPaymentCommand, trace *TraceRecorder) (ConfirmPaymentResult, error) {
	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return s.fail(trace, s.mapRepositoryError(err))
	}
	if order.Status == domain.OrderStatusPaid {
		return s.replay(ctx, order, cmd, trace)
	}
	return s.fail(trace, fmt.Errorf("%w: order %s transitioned to %s concurrently", ErrPaymentConflict, order.ID, order.Status))
}

func (s *confirmationService) writeAttribution(ctx context.Context, order domain.Order, resolved ResolvedAttribution, now time.Time) (domain.Attribution, error) {
	if resolved.Existing != nil {
		return *resolved.Existing, nil
	}

	attribution := domain.Attribution{
		OrderID:           order.ID,
		InfluencerID:      resolved.InfluencerID,
		PromoCodeID:       resolved.PromoCodeID,
		DiscountPercent:   resolved.DiscountPercent,
		CommissionPercent: resolved.CommissionPercent,
		CommissionAmount:  domain.CommissionAmount(order.Subtotal, resolved.CommissionPercent),
		Currency:          order.Currency,
		Status:            domain.AttributionStatusPending,
		Source:            resolved.Source,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	return s.attributions.Upsert(ctx, attribution)
}

func hasInfluencer(resolved ResolvedAttribution) bool {
	return resolved.InfluencerID != nil && strings.TrimSpace(*resolved.InfluencerID) != ""
}

func (s *confirmationService) computeAmounts(order domain.Order, resolved ResolvedAttribution, attributed bool, gatewayOrder gateway.Order) domain.PaymentAmounts {
	var capturedMinor *int64
	if gatewayOrder.AmountPaidMinor > 0 {
		captured := gatewayOrder.AmountPaidMinor
		capturedMinor = &captured
	}

	if attributed {
		return domain.ComputeAmounts(order.Subtotal, resolved.DiscountPercent, order.ShippingFee, capturedMinor)
	}
	return domain.ComputeAmountsFromDiscount(order.Subtotal, order.DiscountTotal, order.ShippingFee, capturedMinor)
}

func (s *confirmationService) fail(trace *TraceRecorder, err error) (ConfirmPaymentResult, error) {
	return ConfirmPaymentResult{Trace: trace.Steps()}, err
}

func (s *confirmationService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrPaymentOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrPaymentConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
		}
	}
	return err
}

func (s *confirmationService) mapGatewayError(err error) error {
	switch {
	case errors.Is(err, gateway.ErrOrderNotFound):
		return fmt.Errorf("%w: gateway order not found", ErrPaymentInvalidInput)
	case errors.Is(err, gateway.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
	}
}

func validateConfirmCommand(cmd ConfirmPaymentCommand) error {
	if strings.TrimSpace(cmd.OrderID) == "" {
		return fmt.Errorf("%w: order id is required", ErrPaymentInvalidInput)
	}
	if strings.TrimSpace(cmd.GatewayOrderID) == "" {
		return fmt.Errorf("%w: gateway order id is required", ErrPaymentInvalidInput)
	}
	if strings.TrimSpace(cmd.GatewayPaymentID) == "" {
		return fmt.Errorf("%w: gateway payment id is required", ErrPaymentInvalidInput)
	}
	if strings.TrimSpace(cmd.GatewaySignature) == "" {
		return fmt.Errorf("%w: gateway signature is required", ErrPaymentInvalidInput)
	}
	return nil
}

func gatewayPayload(cmd ConfirmPaymentCommand, gatewayOrder gateway.Order) map[string]any {
	payload := map[string]any{
		"gatewayOrderId":   cmd.GatewayOrderID,
		"gatewayPaymentId": cmd.GatewayPaymentID,
		"gatewayStatus":    string(gatewayOrder.Status),
		"amountMinor":      gatewayOrder.AmountMinor,
	}
	if gatewayOrder.AmountPaidMinor > 0 {
		payload["amountPaidMinor"] = gatewayOrder.AmountPaidMinor
	}
	if receipt := strings.TrimSpace(gatewayOrder.Receipt); receipt != "" {
		payload["receipt"] = receipt
	}
	return payload
}

func replayAmounts(order domain.Order) domain.PaymentAmounts {
	return domain.PaymentAmounts{
		DiscountAmount: order.DiscountTotal,
		LocalTotal:     domain.Round2(order.Subtotal.Sub(order.DiscountTotal).Add(order.ShippingFee)),
		PaidTotal:      order.Total,
	}
}

func isConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}
