// Package sms delivers verification codes synchronously through the
// configured provider.
package sms

import (
	"context"

	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/sms"
	"github.com/shandysiswandi/freightbite/internal/shared/smstext"
	"go.opentelemetry.io/otel/codes"
)

// Direct sends the code in-request. Delivered means the provider accepted it.
type Direct struct {
	client sms.SMS
	ins    instrument.Instrumentation
}

func NewDirect(client sms.SMS, ins instrument.Instrumentation) *Direct {
	return &Direct{client: client, ins: ins}
}

func (d *Direct) Send(ctx context.Context, phone, code string) (bool, error) {
	ctx, span := d.ins.Tracer("auth.outbound.sms").Start(ctx, "Send")
	defer span.End()

	err := d.client.Send(ctx, sms.Message{To: phone, Text: smstext.OTP(code)})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	return true, nil
}
