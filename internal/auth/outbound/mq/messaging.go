package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/messaging"
	"github.com/shandysiswandi/freightbite/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

// OTPDelivery hands codes to the notification consumer. Delivered means the
// broker accepted the message.
type OTPDelivery struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewOTPDelivery(client messaging.Publisher, ins instrument.Instrumentation) *OTPDelivery {
	return &OTPDelivery{client: client, ins: ins}
}

func (m *OTPDelivery) Send(ctx context.Context, phone, code string) (bool, error) {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishOTPDelivery")
	defer span.End()

	body, err := json.Marshal(event.AuthOTPDeliveryMessage{PhoneNumber: phone, OTPCode: code})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.AuthOTPDeliveryDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(phone),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	return true, nil
}
