// Package sqlite stores challenges, users and sessions in SQLite through
// gorm's raw SQL API. Timestamps are unix milliseconds so that expiry checks
// compare integers.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shandysiswandi/freightbite/internal/auth/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

type DB struct {
	conn *gorm.DB
	ins  instrument.Instrumentation
}

func NewDB(conn *gorm.DB, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, sql.ErrNoRows) {
		return goerror.ErrNotFound
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.outbound.sqlite").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

type challengeRow struct {
	ID          int64
	PhoneNumber string
	OTPCode     string `gorm:"column:otp_code"`
	Status      string
	SentAt      int64
	VerifiedAt  sql.NullInt64
}

func (r challengeRow) entity() entity.OTPChallenge {
	out := entity.OTPChallenge{
		ID:          r.ID,
		PhoneNumber: r.PhoneNumber,
		Code:        r.OTPCode,
		Status:      entity.OTPStatus(r.Status),
		SentAt:      fromMillis(r.SentAt),
	}
	if r.VerifiedAt.Valid {
		at := fromMillis(r.VerifiedAt.Int64)
		out.VerifiedAt = &at
	}
	return out
}

// ReplaceSentChallenge stores in as the phone's only sent challenge through
// an upsert on the partial unique index over sent rows.
func (s *DB) ReplaceSentChallenge(ctx context.Context, in entity.OTPChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceSentChallenge")
	defer func() { s.endSpan(span, err) }()

	err = s.mapError(s.conn.WithContext(ctx).Exec(
		`INSERT INTO otp_logs (id, phone_number, otp_code, status, sent_at)
		 VALUES (?, ?, ?, 'sent', ?)
		 ON CONFLICT (phone_number) WHERE status = 'sent'
		 DO UPDATE SET id = excluded.id, otp_code = excluded.otp_code,
		               sent_at = excluded.sent_at, verified_at = NULL`,
		in.ID, in.PhoneNumber, in.Code, toMillis(in.SentAt),
	).Error)
	return err
}

func (s *DB) GetLatestSentChallenge(ctx context.Context, phone string) (_ *entity.OTPChallenge, err error) {
	ctx, span := s.startSpan(ctx, "GetLatestSentChallenge")
	defer func() { s.endSpan(span, err) }()

	var rows []challengeRow
	err = s.conn.WithContext(ctx).Raw(
		`SELECT id, phone_number, otp_code, status, sent_at, verified_at
		 FROM otp_logs WHERE phone_number = ? AND status = ?
		 ORDER BY sent_at DESC, id DESC LIMIT 1`,
		phone, string(entity.OTPStatusSent),
	).Scan(&rows).Error
	if err != nil {
		return nil, s.mapError(err)
	}
	if len(rows) == 0 {
		err = goerror.ErrNotFound
		return nil, err
	}

	chal := rows[0].entity()
	return &chal, nil
}

func (s *DB) TransitionChallenge(ctx context.Context, id int64, to entity.OTPStatus, verifiedAt *time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "TransitionChallenge")
	defer func() { s.endSpan(span, err) }()

	if !to.Terminal() {
		err = entity.ErrNonTerminalStatus
		return false, err
	}

	var at sql.NullInt64
	if verifiedAt != nil {
		at = sql.NullInt64{Int64: toMillis(*verifiedAt), Valid: true}
	}

	res := s.conn.WithContext(ctx).Exec(
		`UPDATE otp_logs SET status = ?, verified_at = ? WHERE id = ? AND status = ?`,
		string(to), at, id, string(entity.OTPStatusSent),
	)
	if res.Error != nil {
		err = s.mapError(res.Error)
		return false, err
	}

	return res.RowsAffected == 1, nil
}

func (s *DB) ListChallenges(ctx context.Context, limit int) (_ []entity.OTPChallenge, err error) {
	ctx, span := s.startSpan(ctx, "ListChallenges")
	defer func() { s.endSpan(span, err) }()

	var rows []challengeRow
	err = s.conn.WithContext(ctx).Raw(
		`SELECT id, phone_number, otp_code, status, sent_at, verified_at
		 FROM otp_logs ORDER BY sent_at DESC, id DESC LIMIT ?`, limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, s.mapError(err)
	}

	out := make([]entity.OTPChallenge, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entity())
	}
	return out, nil
}

type userRow struct {
	ID          int64
	PhoneNumber string
	CreatedAt   int64
}

func (s *DB) GetUserByPhone(ctx context.Context, phone string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByPhone")
	defer func() { s.endSpan(span, err) }()

	var rows []userRow
	err = s.conn.WithContext(ctx).Raw(
		`SELECT id, phone_number, created_at FROM users WHERE phone_number = ? LIMIT 1`, phone,
	).Scan(&rows).Error
	if err != nil {
		return nil, s.mapError(err)
	}
	if len(rows) == 0 {
		err = goerror.ErrNotFound
		return nil, err
	}

	return &entity.User{ID: rows[0].ID, PhoneNumber: rows[0].PhoneNumber, CreatedAt: fromMillis(rows[0].CreatedAt)}, nil
}

func (s *DB) CreateUser(ctx context.Context, in entity.User) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	err = s.mapError(s.conn.WithContext(ctx).Exec(
		`INSERT INTO users (id, phone_number, created_at) VALUES (?, ?, ?)`,
		in.ID, in.PhoneNumber, toMillis(in.CreatedAt),
	).Error)
	return err
}

// ReplaceUserSession makes in the user's only session in one statement.
func (s *DB) ReplaceUserSession(ctx context.Context, in entity.Session) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceUserSession")
	defer func() { s.endSpan(span, err) }()

	err = s.mapError(s.conn.WithContext(ctx).Exec(
		`INSERT INTO user_sessions (id, user_id, phone_number, session_token, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id)
		 DO UPDATE SET id = excluded.id, phone_number = excluded.phone_number,
		               session_token = excluded.session_token, expires_at = excluded.expires_at,
		               created_at = excluded.created_at`,
		in.ID, in.UserID, in.PhoneNumber, in.TokenHash, toMillis(in.ExpiresAt), toMillis(in.CreatedAt),
	).Error)
	return err
}

type sessionUserRow struct {
	UserID      int64
	PhoneNumber string
	ExpiresAt   int64
}

func (s *DB) GetSessionUser(ctx context.Context, tokenHash string, now time.Time) (_ *entity.SessionUser, err error) {
	ctx, span := s.startSpan(ctx, "GetSessionUser")
	defer func() { s.endSpan(span, err) }()

	var rows []sessionUserRow
	err = s.conn.WithContext(ctx).Raw(
		`SELECT user_id, phone_number, expires_at FROM user_sessions
		 WHERE session_token = ? AND expires_at > ? LIMIT 1`,
		tokenHash, toMillis(now),
	).Scan(&rows).Error
	if err != nil {
		return nil, s.mapError(err)
	}
	if len(rows) == 0 {
		err = goerror.ErrNotFound
		return nil, err
	}

	return &entity.SessionUser{
		UserID:      rows[0].UserID,
		PhoneNumber: rows[0].PhoneNumber,
		ExpiresAt:   fromMillis(rows[0].ExpiresAt),
	}, nil
}

func (s *DB) DeleteSession(ctx context.Context, tokenHash string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteSession")
	defer func() { s.endSpan(span, err) }()

	err = s.mapError(s.conn.WithContext(ctx).Exec(`DELETE FROM user_sessions WHERE session_token = ?`, tokenHash).Error)
	return err
}

func (s *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpiredSessions")
	defer func() { s.endSpan(span, err) }()

	res := s.conn.WithContext(ctx).Exec(`DELETE FROM user_sessions WHERE expires_at <= ?`, toMillis(now))
	if res.Error != nil {
		err = s.mapError(res.Error)
		return 0, err
	}

	return res.RowsAffected, nil
}
