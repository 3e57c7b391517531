package sms

import (
	"context"

	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/sms"
	"go.opentelemetry.io/otel/codes"
)

type SMS struct {
	client sms.SMS
	ins    instrument.Instrumentation
}

func New(client sms.SMS, ins instrument.Instrumentation) *SMS {
	return &SMS{client: client, ins: ins}
}

func (m *SMS) Send(ctx context.Context, phone, text string) error {
	ctx, span := m.ins.Tracer("notification.outbound.sms").Start(ctx, "Send")
	defer span.End()

	if err := m.client.Send(ctx, sms.Message{To: phone, Text: text}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
