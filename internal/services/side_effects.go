package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/madenkorea/api/internal/notify"
	"github.com/madenkorea/api/internal/repositories"
)

// Side effect step names.
const (
	SideEffectPromoUsage    = "promo_usage"
	SideEffectClearCart     = "clear_cart"
	SideEffectReceipt       = "receipt_email"
	SideEffectInternalAlert = "internal_alert"
)

// Side effect statuses.
const (
	SideEffectStatusOK      = "ok"
	SideEffectStatusSkipped = "skipped"
	SideEffectStatusFailed  = "failed"
)

const defaultStepTimeout = 5 * time.Second

// alertPlaceholder stands in for attribution fields when no influencer was resolved.
const alertPlaceholder = "—"

// SideEffectOrchestratorDeps bundles collaborators for the post-payment steps.
type SideEffectOrchestratorDeps struct {
	PromoCodes        repositories.PromoCodeRepository
	Carts             repositories.CartRepository
	Notifier          notify.Notifier
	InternalRecipient string
	StepTimeout       time.Duration
	Clock             func() time.Time
	Logger            func(ctx context.Context, event string, fields map[string]any)
}

type sideEffectOrchestrator struct {
	promoCodes        repositories.PromoCodeRepository
	carts             repositories.CartRepository
	notifier          notify.Notifier
	internalRecipient string
	stepTimeout       time.Duration
	clock             func() time.Time
	logger            func(context.Context, string, map[string]any)
}

// NewSideEffectOrchestrator wires dependencies into a SideEffectRunner. Any
// collaborator may be nil; its steps then report skipped instead of failing.
func NewSideEffectOrchestrator(deps SideEffectOrchestratorDeps) (SideEffectRunner, error) {
	timeout := deps.StepTimeout
	if timeout <= 0 {
		timeout = defaultStepTimeout
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &sideEffectOrchestrator{
		promoCodes:        deps.PromoCodes,
		carts:             deps.Carts,
		notifier:          deps.Notifier,
		internalRecipient: strings.TrimSpace(deps.InternalRecipient),
		stepTimeout:       timeout,
		clock:             clock,
		logger:            logger,
	}, nil
}

// Run executes every step in order. A failing or panicking step is recorded and
// the remaining steps still run; the payment itself is already committed.
func (o *sideEffectOrchestrator) Run(ctx context.Context, input SideEffectInput) []SideEffectResult {
	steps := []struct {
		name string
		run  func(ctx context.Context) (string, error)
	}{
		{SideEffectPromoUsage, func(ctx context.Context) (string, error) { return o.incrementPromoUsage(ctx, input) }},
		{SideEffectClearCart, func(ctx context.Context) (string, error) { return o.clearCart(ctx, input) }},
		{SideEffectReceipt, func(ctx context.Context) (string, error) { return o.sendReceipt(ctx, input) }},
		{SideEffectInternalAlert, func(ctx context.Context) (string, error) { return o.sendInternalAlert(ctx, input) }},
	}

	results := make([]SideEffectResult, 0, len(steps))
	for _, step := range steps {
		results = append(results, o.runStep(ctx, step.name, input.Order.ID, step.run))
	}
	return results
}

func (o *sideEffectOrchestrator) runStep(ctx context.Context, name, orderID string, run func(ctx context.Context) (string, error)) SideEffectResult {
	start := o.clock()

	// Steps run on a detached context so a cancelled request cannot abandon
	// work the committed payment still owes.
	stepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.stepTimeout)
	defer cancel()

	status, err := o.runRecovered(stepCtx, run)
	elapsed := o.clock().Sub(start)

	result := SideEffectResult{Name: name, Status: status, Elapsed: elapsed}
	if err != nil {
		result.Status = SideEffectStatusFailed
		result.Error = err.Error()
		o.logger(ctx, "payment.side_effect.failed", map[string]any{
			"step":    name,
			"orderId": orderID,
			"error":   err.Error(),
		})
	}
	return result
}

func (o *sideEffectOrchestrator) runRecovered(ctx context.Context, run func(ctx context.Context) (string, error)) (status string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return run(ctx)
}

func (o *sideEffectOrchestrator) incrementPromoUsage(ctx context.Context, input SideEffectInput) (string, error) {
	promoID := strings.TrimSpace(input.IncrementPromoID)
	if promoID == "" {
		return SideEffectStatusSkipped, nil
	}
	if o.promoCodes == nil {
		return SideEffectStatusSkipped, errors.New("promo code repository not configured")
	}
	if err := o.promoCodes.IncrementUsage(ctx, promoID); err != nil {
		return SideEffectStatusFailed, err
	}
	return SideEffectStatusOK, nil
}

func (o *sideEffectOrchestrator) clearCart(ctx context.Context, input SideEffectInput) (string, error) {
	if input.Order.UserID == nil || strings.TrimSpace(*input.Order.UserID) == "" {
		return SideEffectStatusSkipped, nil
	}
	if o.carts == nil {
		return SideEffectStatusSkipped, nil
	}
	if err := o.carts.Clear(ctx, *input.Order.UserID); err != nil {
		return SideEffectStatusFailed, err
	}
	return SideEffectStatusOK, nil
}

func (o *sideEffectOrchestrator) sendReceipt(ctx context.Context, input SideEffectInput) (string, error) {
	if o.notifier == nil {
		return SideEffectStatusSkipped, nil
	}

	message := notify.ReceiptMessage{
		OrderID:     input.Order.ID,
		OrderNumber: input.Order.OrderNumber,
		Currency:    input.Order.Currency,
		Total:       input.Amounts.PaidTotal.StringFixed(2),
		PaymentRef:  input.Order.PaymentRef,
	}
	if input.Order.UserID != nil {
		message.UserID = *input.Order.UserID
	}

	if _, err := o.notifier.SendReceipt(ctx, message); err != nil {
		return SideEffectStatusFailed, err
	}
	return SideEffectStatusOK, nil
}

func (o *sideEffectOrchestrator) sendInternalAlert(ctx context.Context, input SideEffectInput) (string, error) {
	if o.notifier == nil {
		return SideEffectStatusSkipped, nil
	}

	influencer, promo, commission := alertPlaceholder, alertPlaceholder, alertPlaceholder
	if input.Attribution != nil {
		if input.Attribution.InfluencerID != nil {
			influencer = *input.Attribution.InfluencerID
		}
		if input.Attribution.PromoCodeID != nil {
			promo = *input.Attribution.PromoCodeID
		}
		commission = fmt.Sprintf("%s %s", input.Attribution.Currency, input.Attribution.CommissionAmount.StringFixed(2))
	}

	message := notify.InternalAlertMessage{
		OrderID:      input.Order.ID,
		OrderNumber:  input.Order.OrderNumber,
		Recipient:    o.internalRecipient,
		Subject:      fmt.Sprintf("Payment confirmed for %s", input.Order.OrderNumber),
		InfluencerID: influencer,
		PromoCodeID:  promo,
		Commission:   commission,
		Body: fmt.Sprintf("Order %s paid %s %s (ref %s); influencer %s, promo %s, commission %s",
			input.Order.OrderNumber,
			input.Order.Currency,
			input.Amounts.PaidTotal.StringFixed(2),
			input.Order.PaymentRef,
			influencer,
			promo,
			commission,
		),
	}

	if _, err := o.notifier.SendInternalAlert(ctx, message); err != nil {
		return SideEffectStatusFailed, err
	}
	return SideEffectStatusOK, nil
}
