package inbound

import (
	"context"

	"github.com/shandysiswandi/freightbite/internal/notification/usecase"
)

type uc interface {
	ConsumeOTPDelivery(ctx context.Context, in usecase.ConsumeOTPDeliveryInput) error
	ConsumeFreightStatusChanged(ctx context.Context, in usecase.ConsumeFreightStatusChangedInput) error
}
