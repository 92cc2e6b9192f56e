package notify

import "context"

// ReceiptMessage carries the data needed to render a payment receipt email.
type ReceiptMessage struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	UserID      string `json:"userId,omitempty"`
	Currency    string `json:"currency"`
	Total       string `json:"total"`
	PaymentRef  string `json:"paymentRef"`
}

// InternalAlertMessage notifies operations about a confirmed payment that needs
// attention. Attribution fields carry a "—" placeholder when no influencer was
// resolved for the order.
type InternalAlertMessage struct {
	OrderID      string `json:"orderId"`
	OrderNumber  string `json:"orderNumber"`
	Recipient    string `json:"recipient,omitempty"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	InfluencerID string `json:"influencerId"`
	PromoCodeID  string `json:"promoCodeId"`
	Commission   string `json:"commission"`
}

// Notifier delivers post-payment messages. Delivery is best effort; callers
// must not fail the payment flow on notifier errors.
type Notifier interface {
	SendReceipt(ctx context.Context, message ReceiptMessage) (string, error)
	SendInternalAlert(ctx context.Context, message InternalAlertMessage) (string, error)
}
