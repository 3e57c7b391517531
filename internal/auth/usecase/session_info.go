package usecase

import (
	"context"

	"github.com/shandysiswandi/freightbite/internal/auth/entity"
)

type SessionInput struct {
	Token string
}

// Session reports who the token belongs to; a nil result means unauthenticated.
func (s *Usecase) Session(ctx context.Context, in SessionInput) (*entity.SessionUser, error) {
	ctx, span := s.startSpan(ctx, "Session")
	defer span.End()

	return s.ValidateSession(ctx, in.Token)
}
