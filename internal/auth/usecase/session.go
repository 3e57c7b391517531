package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/freightbite/internal/auth/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
	"github.com/shandysiswandi/freightbite/internal/pkg/session"
	"github.com/shandysiswandi/freightbite/internal/pkg/sms"
)

type CreateSessionOutput struct {
	Token     string
	User      entity.User
	ExpiresAt time.Time
}

// CreateSession mints the only live session of the user owning phone. Any
// earlier session of that user stops validating.
func (s *Usecase) CreateSession(ctx context.Context, phone string) (*CreateSessionOutput, error) {
	ctx, span := s.startSpan(ctx, "CreateSession")
	defer span.End()

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, goerror.NewInvalidInput(nil, "phone_number", "phone_number is a required field")
	}

	user, err := s.resolveUser(ctx, phone)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve user", "phone_number", sms.MaskPhone(phone), "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.token.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate session token", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	sess := entity.Session{
		ID:          s.uid.Generate(),
		UserID:      user.ID,
		PhoneNumber: user.PhoneNumber,
		TokenHash:   s.hmac.Hash(token),
		ExpiresAt:   now.Add(s.sessionTTL),
		CreatedAt:   now,
	}
	if err := s.repoDB.ReplaceUserSession(ctx, sess); err != nil {
		slog.ErrorContext(ctx, "failed to repo replace user session", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "session created", "user_id", user.ID)

	return &CreateSessionOutput{Token: token, User: *user, ExpiresAt: sess.ExpiresAt}, nil
}

// ValidateSession resolves token to its user. Unknown, revoked and expired
// tokens all yield nil without an error.
func (s *Usecase) ValidateSession(ctx context.Context, token string) (*entity.SessionUser, error) {
	ctx, span := s.startSpan(ctx, "ValidateSession")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	su, err := s.repoDB.GetSessionUser(ctx, s.hmac.Hash(token), s.clock.Now())
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session user", "error", err)
		return nil, goerror.NewServer(err)
	}

	return su, nil
}

// Authenticate implements session.Validator for the router.
func (s *Usecase) Authenticate(ctx context.Context, token string) (*session.Auth, error) {
	su, err := s.ValidateSession(ctx, token)
	if err != nil || su == nil {
		return nil, err
	}

	return &session.Auth{UserID: su.UserID, PhoneNumber: su.PhoneNumber, ExpiresAt: su.ExpiresAt}, nil
}

// RevokeSession deletes the session behind token. Revoking an unknown token
// succeeds.
func (s *Usecase) RevokeSession(ctx context.Context, token string) error {
	ctx, span := s.startSpan(ctx, "RevokeSession")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	err := s.repoDB.DeleteSession(ctx, s.hmac.Hash(token))
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo delete session", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// SweepExpiredSessions removes every session whose expiry has passed.
func (s *Usecase) SweepExpiredSessions(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "SweepExpiredSessions")
	defer span.End()

	n, err := s.repoDB.DeleteExpiredSessions(ctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete expired sessions", "error", err)
		return 0, goerror.NewServer(err)
	}

	if n > 0 {
		s.sessionsSwept.Add(ctx, n)
		slog.InfoContext(ctx, "expired sessions swept", "count", n)
	}

	return n, nil
}

// resolveUser returns the user for phone, creating it on first use. A lost
// insert race is resolved by reading the winner's row.
func (s *Usecase) resolveUser(ctx context.Context, phone string) (*entity.User, error) {
	user, err := s.repoDB.GetUserByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		return nil, err
	}

	fresh := entity.User{ID: s.uid.Generate(), PhoneNumber: phone, CreatedAt: s.clock.Now()}
	err = s.repoDB.CreateUser(ctx, fresh)
	if err == nil {
		return &fresh, nil
	}
	if !errors.Is(err, goerror.ErrConflict) {
		return nil, err
	}

	return s.repoDB.GetUserByPhone(ctx, phone)
}
