package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/freightbite/internal/auth/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
	"github.com/shandysiswandi/freightbite/internal/pkg/sms"
)

type VerifyOTPInput struct {
	PhoneNumber string `validate:"required,phone"`
	OTPCode     string `validate:"required,otpcode"`
}

type VerifyOTPOutput struct {
	User      entity.User
	Token     string
	ExpiresAt time.Time
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	outcome, err := s.VerifyChallenge(ctx, in.PhoneNumber, in.OTPCode)
	if err != nil {
		return nil, err
	}

	if outcome != entity.VerifyOutcomeVerified {
		slog.WarnContext(ctx, "verification code rejected", "phone_number", sms.MaskPhone(in.PhoneNumber), "reason", outcome.String())
		return nil, goerror.NewBusinessWrap(outcome.Err(), "Invalid or expired verification code", goerror.CodeInvalidInput)
	}

	sess, err := s.CreateSession(ctx, in.PhoneNumber)
	if err != nil {
		return nil, err
	}

	return &VerifyOTPOutput{User: sess.User, Token: sess.Token, ExpiresAt: sess.ExpiresAt}, nil
}
