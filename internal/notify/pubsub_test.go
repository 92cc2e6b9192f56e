package notify

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPubSubNotifierSendReceipt(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "mail-jobs")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	notifier, err := NewPubSubNotifier(topic)
	if err != nil {
		t.Fatalf("NewPubSubNotifier: %v", err)
	}

	msg := ReceiptMessage{
		OrderID:     "ord_123",
		OrderNumber: "MK-2025-000123",
		UserID:      "usr_9",
		Currency:    "INR",
		Total:       "950.00",
		PaymentRef:  "pay_abc",
	}

	if _, err := notifier.SendReceipt(ctx, msg); err != nil {
		t.Fatalf("SendReceipt: %v", err)
	}

	published := srv.Messages()
	if len(published) != 1 {
		t.Fatalf("expected 1 message, got %d", len(published))
	}

	var payload ReceiptMessage
	if err := json.Unmarshal(published[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderID != msg.OrderID || payload.Total != msg.Total {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if kind := published[0].Attributes["kind"]; kind != "payment_receipt" {
		t.Fatalf("expected payment_receipt kind attribute, got %q", kind)
	}
	if attr := published[0].Attributes["orderId"]; attr != "ord_123" {
		t.Fatalf("expected orderId attribute, got %q", attr)
	}
	if published[0].Attributes["jobId"] == "" {
		t.Fatal("expected jobId attribute")
	}
}

func TestPubSubNotifierSendInternalAlert(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "mail-jobs")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	notifier, err := NewPubSubNotifier(topic)
	if err != nil {
		t.Fatalf("NewPubSubNotifier: %v", err)
	}

	msg := InternalAlertMessage{
		OrderID:     "ord_123",
		OrderNumber: "MK-2025-000123",
		Recipient:   "ops@madenkorea.example",
		Subject:     "Payment confirmed",
		Body:        "Order MK-2025-000123 paid",
	}

	if _, err := notifier.SendInternalAlert(ctx, msg); err != nil {
		t.Fatalf("SendInternalAlert: %v", err)
	}

	published := srv.Messages()
	if len(published) != 1 {
		t.Fatalf("expected 1 message, got %d", len(published))
	}
	if kind := published[0].Attributes["kind"]; kind != "internal_alert" {
		t.Fatalf("expected internal_alert kind attribute, got %q", kind)
	}
}

func TestNewPubSubNotifierRequiresTopic(t *testing.T) {
	if _, err := NewPubSubNotifier(nil); err == nil {
		t.Fatal("expected error for nil topic")
	}
}
