package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/messaging"
	"github.com/shandysiswandi/freightbite/internal/shared/event"
)

func TestOTPDeliverySend(t *testing.T) {
	broker := messaging.NewMemory()
	t.Cleanup(func() { _ = broker.Close() })

	ctx := instrument.SetCorrelationID(context.Background(), "corr-otp")
	ok, err := NewOTPDelivery(broker, instrument.NewNoop()).Send(ctx, "09121111111", "4821")
	if err != nil || !ok {
		t.Fatalf("Send() = %v, %v, want true", ok, err)
	}

	got := make(chan messaging.Message, 1)
	cctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = broker.Consume(cctx, event.AuthOTPDeliveryDestination, func(_ context.Context, msg messaging.Message) error {
			got <- msg
			return nil
		}, messaging.WithAutoAck(true))
	}()

	select {
	case msg := <-got:
		var body event.AuthOTPDeliveryMessage
		if err := json.Unmarshal(msg.Body(), &body); err != nil {
			t.Fatalf("failed decoding body: %v", err)
		}
		if body.PhoneNumber != "09121111111" || body.OTPCode != "4821" {
			t.Fatalf("body = %+v", body)
		}
		if cID := messaging.HeaderValue(msg, keyOfCorrelationID); cID != "corr-otp" {
			t.Fatalf("correlation header = %q", cID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message consumed")
	}
}

func TestOTPDeliverySendClosedBroker(t *testing.T) {
	broker := messaging.NewMemory()
	_ = broker.Close()

	ok, err := NewOTPDelivery(broker, instrument.NewNoop()).Send(context.Background(), "09121111111", "4821")
	if err == nil || ok {
		t.Fatalf("Send() = %v, %v, want failure", ok, err)
	}
}
