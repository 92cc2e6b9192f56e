package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/oklog/ulid/v2"
)

const (
	messageKindReceipt       = "payment_receipt"
	messageKindInternalAlert = "internal_alert"
)

// PubSubNotifier publishes mail jobs to a Pub/Sub topic consumed by the mailer worker.
type PubSubNotifier struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubNotifier constructs a Pub/Sub backed notifier.
func NewPubSubNotifier(topic *pubsub.Topic) (*PubSubNotifier, error) {
	if topic == nil {
		return nil, errors.New("pubsub notifier: topic is required")
	}
	return &PubSubNotifier{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// SendReceipt enqueues a receipt mail job and returns the Pub/Sub message ID.
func (n *PubSubNotifier) SendReceipt(ctx context.Context, message ReceiptMessage) (string, error) {
	if n == nil || n.topic == nil {
		return "", errors.New("pubsub notifier: not initialised")
	}

	data, err := n.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal receipt message: %w", err)
	}

	attrs := map[string]string{"kind": messageKindReceipt}
	setAttr(attrs, "orderId", message.OrderID)
	setAttr(attrs, "userId", message.UserID)

	return n.publish(ctx, data, attrs)
}

// SendInternalAlert enqueues an operations alert and returns the Pub/Sub message ID.
func (n *PubSubNotifier) SendInternalAlert(ctx context.Context, message InternalAlertMessage) (string, error) {
	if n == nil || n.topic == nil {
		return "", errors.New("pubsub notifier: not initialised")
	}

	data, err := n.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal internal alert: %w", err)
	}

	attrs := map[string]string{"kind": messageKindInternalAlert}
	setAttr(attrs, "orderId", message.OrderID)

	return n.publish(ctx, data, attrs)
}

func (n *PubSubNotifier) publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	attrs["jobId"] = ulid.Make().String()
	result := n.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish mail job: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
