package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/freightbite/internal/auth/entity"
)

func (s *DB) GetUserByPhone(ctx context.Context, phone string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByPhone")
	defer func() { s.endSpan(span, err) }()

	var u entity.User
	err = s.conn.QueryRow(ctx,
		`SELECT id, phone_number, created_at FROM users WHERE phone_number = $1`, phone,
	).Scan(&u.ID, &u.PhoneNumber, &u.CreatedAt)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()

	return &u, nil
}

func (s *DB) CreateUser(ctx context.Context, in entity.User) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO users (id, phone_number, created_at) VALUES ($1, $2, $3)`,
		in.ID, in.PhoneNumber, in.CreatedAt)
	err = s.mapError(err)
	return err
}

// ReplaceUserSession makes in the user's only session in one statement,
// keyed on the unique user_id index.
func (s *DB) ReplaceUserSession(ctx context.Context, in entity.Session) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceUserSession")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO user_sessions (id, user_id, phone_number, session_token, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id)
		 DO UPDATE SET id = EXCLUDED.id, phone_number = EXCLUDED.phone_number,
		               session_token = EXCLUDED.session_token, expires_at = EXCLUDED.expires_at,
		               created_at = EXCLUDED.created_at`,
		in.ID, in.UserID, in.PhoneNumber, in.TokenHash, in.ExpiresAt, in.CreatedAt)
	err = s.mapError(err)
	return err
}

func (s *DB) GetSessionUser(ctx context.Context, tokenHash string, now time.Time) (_ *entity.SessionUser, err error) {
	ctx, span := s.startSpan(ctx, "GetSessionUser")
	defer func() { s.endSpan(span, err) }()

	var su entity.SessionUser
	err = s.conn.QueryRow(ctx,
		`SELECT user_id, phone_number, expires_at FROM user_sessions
		 WHERE session_token = $1 AND expires_at > $2`,
		tokenHash, now,
	).Scan(&su.UserID, &su.PhoneNumber, &su.ExpiresAt)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	su.ExpiresAt = su.ExpiresAt.UTC()

	return &su, nil
}

func (s *DB) DeleteSession(ctx context.Context, tokenHash string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteSession")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM user_sessions WHERE session_token = $1`, tokenHash)
	err = s.mapError(err)
	return err
}

func (s *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpiredSessions")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}
