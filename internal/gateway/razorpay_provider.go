package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultRazorpayBaseURL = "https://api.razorpay.com/v1"
	defaultRequestTimeout  = 10 * time.Second

	maxGatewayResponseBody = 1 << 20
)

// RazorpayConfig carries the credentials and tunables for the Razorpay adapter.
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
	Client    *http.Client
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

// RazorpayProvider fetches order state from the Razorpay Orders API.
type RazorpayProvider struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
	logger    func(ctx context.Context, event string, fields map[string]any)
}

// NewRazorpayProvider constructs a Razorpay-backed gateway provider.
func NewRazorpayProvider(cfg RazorpayConfig) (*RazorpayProvider, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keyID == "" || keySecret == "" {
		return nil, errors.New("razorpay: key id and secret are required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultRazorpayBaseURL
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &RazorpayProvider{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		client:    client,
		logger:    logger,
	}, nil
}

type razorpayOrderPayload struct {
	ID         string         `json:"id"`
	Amount     int64          `json:"amount"`
	AmountPaid int64          `json:"amount_paid"`
	Currency   string         `json:"currency"`
	Receipt    string         `json:"receipt"`
	Status     string         `json:"status"`
	Notes      map[string]any `json:"notes"`
	CreatedAt  int64          `json:"created_at"`
}

// FetchOrder implements Provider against GET /orders/{id}.
func (p *RazorpayProvider) FetchOrder(ctx context.Context, gatewayOrderID string) (Order, error) {
	if p == nil || p.client == nil {
		return Order{}, ErrUnavailable
	}
	orderID := strings.TrimSpace(gatewayOrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("razorpay: gateway order id is required")
	}

	endpoint := p.baseURL + "/orders/" + url.PathEscape(orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Order{}, fmt.Errorf("razorpay: build request: %w", err)
	}
	req.SetBasicAuth(p.keyID, p.keySecret)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger(ctx, "gateway.fetch_order.transport_error", map[string]any{
			"gatewayOrderId": orderID,
			"error":          err.Error(),
		})
		return Order{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayResponseBody))
	if err != nil {
		return Order{}, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		// Razorpay reports unknown order ids as 400 with an error envelope.
		return Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	case resp.StatusCode >= http.StatusInternalServerError:
		p.logger(ctx, "gateway.fetch_order.server_error", map[string]any{
			"gatewayOrderId": orderID,
			"status":         resp.StatusCode,
		})
		return Order{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return Order{}, fmt.Errorf("razorpay: unexpected status %d fetching order %s", resp.StatusCode, orderID)
	}

	var payload razorpayOrderPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Order{}, fmt.Errorf("razorpay: decode order %s: %w", orderID, err)
	}

	order := Order{
		ID:              payload.ID,
		Status:          OrderStatus(strings.TrimSpace(payload.Status)),
		AmountMinor:     payload.Amount,
		AmountPaidMinor: payload.AmountPaid,
		Currency:        strings.ToUpper(strings.TrimSpace(payload.Currency)),
		Receipt:         strings.TrimSpace(payload.Receipt),
		Notes:           payload.Notes,
	}
	if payload.CreatedAt > 0 {
		order.CreatedAt = time.Unix(payload.CreatedAt, 0).UTC()
	}
	return order, nil
}
