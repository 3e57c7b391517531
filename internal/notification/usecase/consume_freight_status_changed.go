package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/freightbite/internal/shared/smstext"
)

type ConsumeFreightStatusChangedInput struct {
	RequestID   int64  `validate:"gt=0"`
	PhoneNumber string `validate:"required"`
	OldStatus   string
	NewStatus   string `validate:"required,freightstatus"`
}

// ConsumeFreightStatusChanged texts the requester about a status change.
// Events that do not change the status are ignored.
func (s *Usecase) ConsumeFreightStatusChanged(ctx context.Context, in ConsumeFreightStatusChangedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeFreightStatusChanged")
	defer span.End()

	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	if in.OldStatus == in.NewStatus {
		return nil
	}

	return s.send(ctx, in.PhoneNumber, smstext.FreightStatus(in.RequestID, in.NewStatus))
}
