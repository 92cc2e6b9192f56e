package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*RazorpayProvider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewRazorpayProvider(RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		BaseURL:   server.URL,
	})
	if err != nil {
		t.Fatalf("NewRazorpayProvider: %v", err)
	}
	return provider, server
}

func TestFetchOrderDecodesPayload(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/order_abc123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "rzp_test_secret" {
			t.Error("basic auth credentials not forwarded")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "order_abc123",
			"amount":      95000,
			"amount_paid": 95000,
			"currency":    "inr",
			"receipt":     "MK-2026-000123",
			"status":      "paid",
			"notes": map[string]any{
				"type":          "promo",
				"promo_code_id": "promo_1",
				"influencer_id": "inf_1",
			},
			"created_at": 1767225600,
		})
	})

	order, err := provider.FetchOrder(context.Background(), "order_abc123")
	if err != nil {
		t.Fatalf("FetchOrder: %v", err)
	}
	if order.Status != OrderStatusPaid {
		t.Errorf("status = %s, want paid", order.Status)
	}
	if order.AmountPaidMinor != 95000 {
		t.Errorf("amount paid = %d, want 95000", order.AmountPaidMinor)
	}
	if order.Currency != "INR" {
		t.Errorf("currency = %s, want INR", order.Currency)
	}
	if got := order.NoteString("promo_code_id"); got != "promo_1" {
		t.Errorf("note promo_code_id = %q, want promo_1", got)
	}
	if got := order.NoteString("missing"); got != "" {
		t.Errorf("missing note = %q, want empty", got)
	}
	if order.CreatedAt.IsZero() {
		t.Error("created at not decoded")
	}
}

func TestFetchOrderNotFound(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "BAD_REQUEST_ERROR", "description": "The id provided does not exist"},
		})
	})

	_, err := provider.FetchOrder(context.Background(), "order_missing")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}

func TestFetchOrderServerError(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := provider.FetchOrder(context.Background(), "order_abc123")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestNewRazorpayProviderRequiresCredentials(t *testing.T) {
	if _, err := NewRazorpayProvider(RazorpayConfig{KeyID: "only-key"}); err == nil {
		t.Error("expected error without secret")
	}
	if _, err := NewRazorpayProvider(RazorpayConfig{KeySecret: "only-secret"}); err == nil {
		t.Error("expected error without key id")
	}
}
