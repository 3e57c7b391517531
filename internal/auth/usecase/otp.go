package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/shandysiswandi/freightbite/internal/auth/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
	"github.com/shandysiswandi/freightbite/internal/pkg/sms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const codeDigits = 4

var codeSpace = big.NewInt(10_000)

// generateCode returns a zero-padded 4-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

type IssueChallengeOutput struct {
	Delivered bool
}

// IssueChallenge replaces any outstanding code for phone with a fresh one and
// hands it to the gateway. Storage failures are returned as errors; a
// delivery failure is reported through Delivered and leaves the stored code
// valid.
func (s *Usecase) IssueChallenge(ctx context.Context, phone string) (*IssueChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueChallenge")
	defer span.End()

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, goerror.NewInvalidInput(nil, "phone_number", "phone_number is a required field")
	}

	code, err := generateCode()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification code", "error", err)
		return nil, goerror.NewServer(err)
	}

	chal := entity.OTPChallenge{
		ID:          s.uid.Generate(),
		PhoneNumber: phone,
		Code:        code,
		Status:      entity.OTPStatusSent,
		SentAt:      s.clock.Now(),
	}
	if err := s.repoDB.ReplaceSentChallenge(ctx, chal); err != nil {
		slog.ErrorContext(ctx, "failed to repo replace sent challenge", "phone_number", sms.MaskPhone(phone), "error", err)
		return nil, goerror.NewServer(err)
	}
	s.otpIssued.Add(ctx, 1)

	// the stored challenge is valid whatever the gateway does
	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	delivered, err := s.gateway.Send(gctx, phone, code)
	if err != nil {
		slog.WarnContext(ctx, "failed to deliver verification code", "phone_number", sms.MaskPhone(phone), "error", err)
		return &IssueChallengeOutput{Delivered: false}, nil
	}
	if !delivered {
		slog.WarnContext(ctx, "verification code not delivered", "phone_number", sms.MaskPhone(phone))
	}

	return &IssueChallengeOutput{Delivered: delivered}, nil
}

// VerifyChallenge checks code against the latest outstanding challenge of
// phone and moves it to a terminal state. Authentication failures come back
// as an outcome with a nil error; errors are infrastructure failures only.
func (s *Usecase) VerifyChallenge(ctx context.Context, phone, code string) (entity.VerifyOutcome, error) {
	ctx, span := s.startSpan(ctx, "VerifyChallenge")
	defer span.End()

	outcome, err := s.verifyChallenge(ctx, strings.TrimSpace(phone), strings.TrimSpace(code))
	if err != nil {
		return outcome, err
	}

	s.otpVerified.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
	return outcome, nil
}

func (s *Usecase) verifyChallenge(ctx context.Context, phone, code string) (entity.VerifyOutcome, error) {
	if phone == "" {
		return entity.VerifyOutcomeNoChallenge, nil
	}

	chal, err := s.repoDB.GetLatestSentChallenge(ctx, phone)
	if errors.Is(err, goerror.ErrNotFound) {
		return entity.VerifyOutcomeNoChallenge, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get latest sent challenge", "phone_number", sms.MaskPhone(phone), "error", err)
		return entity.VerifyOutcomeNoChallenge, goerror.NewServer(err)
	}

	now := s.clock.Now()
	to, outcome := entity.OTPStatusFailed, entity.VerifyOutcomeMismatch
	var verifiedAt *time.Time
	switch {
	case chal.ExpiredAt(now, s.otpTTL):
		to, outcome = entity.OTPStatusExpired, entity.VerifyOutcomeExpired
	case code == chal.Code:
		to, outcome = entity.OTPStatusVerified, entity.VerifyOutcomeVerified
		verifiedAt = &now
	}

	moved, err := s.repoDB.TransitionChallenge(ctx, chal.ID, to, verifiedAt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo transition challenge", "challenge_id", chal.ID, "to", to, "error", err)
		return entity.VerifyOutcomeNoChallenge, goerror.NewServer(err)
	}
	if !moved {
		// a concurrent attempt settled this challenge first
		return entity.VerifyOutcomeNoChallenge, nil
	}

	return outcome, nil
}
