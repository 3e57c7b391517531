package usecase

import "context"

type LogoutInput struct {
	Token string
}

func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	return s.RevokeSession(ctx, in.Token)
}
