package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/freightbite/internal/notification/usecase"
	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/messaging"
	"github.com/shandysiswandi/freightbite/internal/pkg/uid"
	"github.com/shandysiswandi/freightbite/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := messaging.HeaderValue(msg, keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// OTPDelivery never logs the body: it carries the code.
func (h *MQHandler) OTPDelivery(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OTPDelivery")
	defer span.End()

	slog.InfoContext(ctx, "consume: otp delivery", "msg_id", msg.ID())

	var payload event.AuthOTPDeliveryMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp delivery", "msg_id", msg.ID(), "error", err)
		return nil
	}

	if err := h.uc.ConsumeOTPDelivery(ctx, usecase.ConsumeOTPDeliveryInput{
		PhoneNumber: payload.PhoneNumber,
		OTPCode:     payload.OTPCode,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp delivery", "msg_id", msg.ID(), "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) FreightStatusChanged(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "FreightStatusChanged")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: freight request status changed", "msg_body", string(body))

	var payload event.FreightRequestStatusChangedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of freight status change", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeFreightStatusChanged(ctx, usecase.ConsumeFreightStatusChangedInput{
		RequestID:   payload.RequestID,
		PhoneNumber: payload.PhoneNumber,
		OldStatus:   payload.OldStatus,
		NewStatus:   payload.NewStatus,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume freight status change", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
