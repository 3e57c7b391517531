package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/freightbite/internal/auth/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/authz"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
)

func (s *Usecase) OTPLogList(ctx context.Context) ([]entity.OTPChallenge, error) {
	ctx, span := s.startSpan(ctx, "OTPLogList")
	defer span.End()

	auth, err := s.authenticatedAndAuthorized(ctx, authz.ObjectOTPLogs, authz.ActRead)
	if err != nil {
		return nil, err
	}

	logs, err := s.repoDB.ListChallenges(ctx, otpLogLimit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list challenges", "user_id", auth.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return logs, nil
}
