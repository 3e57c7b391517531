package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/freightbite/internal/freight/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/messaging"
	"github.com/shandysiswandi/freightbite/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishStatusChanged(ctx context.Context, req entity.Request, old entity.Status) error {
	ctx, span := m.ins.Tracer("freight.outbound.mq").Start(ctx, "PublishStatusChanged")
	defer span.End()

	body, err := json.Marshal(event.FreightRequestStatusChangedMessage{
		RequestID:   req.ID,
		UserID:      req.UserID,
		PhoneNumber: req.PhoneNumber,
		OldStatus:   old.String(),
		NewStatus:   req.Status.String(),
		ChangedAt:   req.UpdatedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.FreightRequestStatusChangedDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatInt(req.ID, 10)),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
