package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/madenkorea/api/internal/domain"
	"github.com/madenkorea/api/internal/platform/httpx"
	"github.com/madenkorea/api/internal/platform/observability"
	"github.com/madenkorea/api/internal/platform/requestctx"
	"github.com/madenkorea/api/internal/services"

	"go.uber.org/zap"
)

const maxConfirmRequestBody = 16 * 1024

var (
	errEmptyBody    = errors.New("request body is required")
	errBodyTooLarge = errors.New("request body too large")
)

// PaymentHandlers exposes the payment confirmation endpoint.
type PaymentHandlers struct {
	confirmations   services.ConfirmationService
	allowDebugTrace bool
}

// NewPaymentHandlers constructs payment handlers.
func NewPaymentHandlers(confirmations services.ConfirmationService, allowDebugTrace bool) *PaymentHandlers {
	return &PaymentHandlers{
		confirmations:   confirmations,
		allowDebugTrace: allowDebugTrace,
	}
}

// Routes registers payment endpoints under the provided router.
func (h *PaymentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/confirm", h.confirmPayment)
}

type confirmPaymentRequest struct {
	OrderID          string `json:"orderId"`
	GatewayOrderID   string `json:"razorpayOrderId"`
	GatewayPaymentID string `json:"razorpayPaymentId"`
	GatewaySignature string `json:"razorpaySignature"`
}

type confirmPaymentResponse struct {
	Status      string                      `json:"status"`
	Order       orderPayload                `json:"order"`
	Attribution *attributionPayload         `json:"attribution,omitempty"`
	Amounts     amountsPayload              `json:"amounts"`
	SideEffects []services.SideEffectResult `json:"sideEffects,omitempty"`
	Trace       []tracePayload              `json:"trace,omitempty"`
}

type orderPayload struct {
	ID            string  `json:"id"`
	OrderNumber   string  `json:"orderNumber"`
	Status        string  `json:"status"`
	Currency      string  `json:"currency"`
	Subtotal      string  `json:"subtotal"`
	ShippingFee   string  `json:"shippingFee"`
	DiscountTotal string  `json:"discountTotal"`
	Total         string  `json:"total"`
	PaymentRef    string  `json:"paymentRef"`
	PaidAt        *string `json:"paidAt,omitempty"`
}

type attributionPayload struct {
	OrderID           string `json:"orderId"`
	InfluencerID      string `json:"influencerId,omitempty"`
	PromoCodeID       string `json:"promoCodeId,omitempty"`
	CommissionPercent string `json:"commissionPercent"`
	CommissionAmount  string `json:"commissionAmount"`
	Currency          string `json:"currency"`
	Status            string `json:"status"`
	Source            string `json:"source"`
}

type amountsPayload struct {
	Discount        string `json:"discount"`
	LocalTotal      string `json:"localTotal"`
	PaidTotal       string `json:"paidTotal"`
	GatewayReported bool   `json:"gatewayReported"`
}

type tracePayload struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	ElapsedMs int64  `json:"elapsedMs"`
}

func (h *PaymentHandlers) confirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.confirmations == nil {
		httpx.WriteError(ctx, w, httpx.NewError("payments_unavailable", "payment service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxConfirmRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return
	}

	var req confirmPaymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	cmd := services.ConfirmPaymentCommand{
		OrderID:          strings.TrimSpace(req.OrderID),
		GatewayOrderID:   strings.TrimSpace(req.GatewayOrderID),
		GatewayPaymentID: strings.TrimSpace(req.GatewayPaymentID),
		GatewaySignature: strings.TrimSpace(req.GatewaySignature),
		IncludeTrace:     h.allowDebugTrace && r.URL.Query().Get("trace") == "1",
	}

	result, err := h.confirmations.ConfirmPayment(ctx, cmd)
	if err != nil {
		requestctx.Logger(ctx).Info("payment confirmation rejected",
			zap.String("orderId", observability.SanitizeUserID(cmd.OrderID)),
			zap.Error(err),
		)
		writeConfirmError(r, w, err)
		return
	}

	status := "confirmed"
	if result.Replayed {
		status = "already_confirmed"
	}

	response := confirmPaymentResponse{
		Status:      status,
		Order:       buildOrderPayload(result.Order),
		Amounts:     buildAmountsPayload(result.Amounts),
		SideEffects: result.SideEffects,
	}
	if result.Attribution != nil {
		payload := buildAttributionPayload(*result.Attribution)
		response.Attribution = &payload
	}
	for _, step := range result.Trace {
		response.Trace = append(response.Trace, tracePayload{
			Name:      step.Name,
			Status:    step.Status,
			Detail:    step.Detail,
			ElapsedMs: step.Elapsed.Milliseconds(),
		})
	}

	writeJSONResponse(w, http.StatusOK, response)
}

func writeConfirmError(r *http.Request, w http.ResponseWriter, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrPaymentInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPaymentSignatureMismatch):
		httpx.WriteError(ctx, w, httpx.NewError("signature_mismatch", "payment signature verification failed", http.StatusBadRequest))
	case errors.Is(err, services.ErrPaymentOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrPaymentOrderNotPayable):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_payable", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrPaymentNotCaptured):
		httpx.WriteError(ctx, w, httpx.NewError("payment_not_captured", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrPaymentConflict):
		httpx.WriteError(ctx, w, httpx.NewError("payment_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrPaymentGatewayUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("gateway_unavailable", "payment gateway unavailable", http.StatusBadGateway))
	case errors.Is(err, services.ErrPaymentUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "payment confirmation temporarily unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}

func buildOrderPayload(order domain.Order) orderPayload {
	payload := orderPayload{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        string(order.Status),
		Currency:      order.Currency,
		Subtotal:      order.Subtotal.StringFixed(2),
		ShippingFee:   order.ShippingFee.StringFixed(2),
		DiscountTotal: order.DiscountTotal.StringFixed(2),
		Total:         order.Total.StringFixed(2),
		PaymentRef:    order.PaymentRef,
	}
	if order.PaidAt != nil {
		formatted := order.PaidAt.UTC().Format(time.RFC3339)
		payload.PaidAt = &formatted
	}
	return payload
}

func buildAttributionPayload(attribution domain.Attribution) attributionPayload {
	payload := attributionPayload{
		OrderID:           attribution.OrderID,
		CommissionPercent: attribution.CommissionPercent.String(),
		CommissionAmount:  attribution.CommissionAmount.StringFixed(2),
		Currency:          attribution.Currency,
		Status:            string(attribution.Status),
		Source:            attribution.Source,
	}
	if attribution.InfluencerID != nil {
		payload.InfluencerID = *attribution.InfluencerID
	}
	if attribution.PromoCodeID != nil {
		payload.PromoCodeID = *attribution.PromoCodeID
	}
	return payload
}

func buildAmountsPayload(amounts domain.PaymentAmounts) amountsPayload {
	return amountsPayload{
		Discount:        amounts.DiscountAmount.StringFixed(2),
		LocalTotal:      amounts.LocalTotal.StringFixed(2),
		PaidTotal:       amounts.PaidTotal.StringFixed(2),
		GatewayReported: amounts.GatewayReported,
	}
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}
