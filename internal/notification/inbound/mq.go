package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/freightbite/internal/pkg/config"
	"github.com/shandysiswandi/freightbite/internal/pkg/goroutine"
	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/messaging"
	"github.com/shandysiswandi/freightbite/internal/pkg/uid"
	"github.com/shandysiswandi/freightbite/internal/shared/event"
)

// RegisterMQConsumer starts every consumer listed in
// modules.notification.consumer_names and returns how many were started.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	consumer messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) int {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enabled := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.concurrency")
	if concurrency <= 0 {
		concurrency = 10
	}

	var consumers = []struct {
		name    string // also the consumer group on every driver
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.AuthOTPDeliveryConsumerNotification,
			topic:   event.AuthOTPDeliveryDestination,
			handler: mqHandler.OTPDelivery,
		},
		{
			name:    event.FreightRequestStatusChangedConsumerNotification,
			topic:   event.FreightRequestStatusChangedDestination,
			handler: mqHandler.FreightStatusChanged,
		},
	}

	started := 0
	for _, c := range consumers {
		if !slices.Contains(enabled, c.name) {
			continue
		}

		ok := routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", c.name)
			return consumer.Consume(pCtx,
				c.topic,
				c.handler,
				messaging.WithGroup(c.name),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
				messaging.WithMaxInFlight(concurrency),
			)
		})
		if !ok {
			slog.WarnContext(ctx, "goroutine limit reached, consumer not started", "consumer", c.name)
			continue
		}
		started++
	}

	return started
}
