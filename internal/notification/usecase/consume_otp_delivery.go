package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/freightbite/internal/pkg/sms"
	"github.com/shandysiswandi/freightbite/internal/shared/smstext"
)

type ConsumeOTPDeliveryInput struct {
	PhoneNumber string `validate:"required"`
	OTPCode     string `validate:"required"`
}

func (s *Usecase) ConsumeOTPDelivery(ctx context.Context, in ConsumeOTPDeliveryInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPDelivery")
	defer span.End()

	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	if err := s.send(ctx, in.PhoneNumber, smstext.OTP(in.OTPCode)); err != nil {
		return err
	}

	slog.InfoContext(ctx, "otp sms sent", "phone", sms.MaskPhone(in.PhoneNumber))
	return nil
}
