package usecase

import (
	"context"

	"github.com/shandysiswandi/freightbite/internal/auth/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
)

type SendOTPInput struct {
	PhoneNumber string `validate:"required,phone"`
}

func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) error {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	out, err := s.IssueChallenge(ctx, in.PhoneNumber)
	if err != nil {
		return err
	}

	if !out.Delivered {
		return goerror.NewServer(entity.ErrGatewayUndelivered)
	}

	return nil
}
