package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/freightbite/internal/auth/entity"
)

const challengeColumns = `id, phone_number, otp_code, status, sent_at, verified_at`

func scanChallenge(row pgx.Row) (entity.OTPChallenge, error) {
	var (
		c      entity.OTPChallenge
		status string
	)
	if err := row.Scan(&c.ID, &c.PhoneNumber, &c.Code, &status, &c.SentAt, &c.VerifiedAt); err != nil {
		return entity.OTPChallenge{}, err
	}
	c.Status = entity.OTPStatus(status)
	c.SentAt = c.SentAt.UTC()
	if c.VerifiedAt != nil {
		at := c.VerifiedAt.UTC()
		c.VerifiedAt = &at
	}
	return c, nil
}

// ReplaceSentChallenge stores in as the phone's only sent challenge. The
// upsert rides on the partial unique index over sent rows, so concurrent
// callers leave exactly one and the last writer wins.
func (s *DB) ReplaceSentChallenge(ctx context.Context, in entity.OTPChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceSentChallenge")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO otp_logs (id, phone_number, otp_code, status, sent_at)
		 VALUES ($1, $2, $3, 'sent', $4)
		 ON CONFLICT (phone_number) WHERE status = 'sent'
		 DO UPDATE SET id = EXCLUDED.id, otp_code = EXCLUDED.otp_code,
		               sent_at = EXCLUDED.sent_at, verified_at = NULL`,
		in.ID, in.PhoneNumber, in.Code, in.SentAt)
	err = s.mapError(err)
	return err
}

func (s *DB) GetLatestSentChallenge(ctx context.Context, phone string) (_ *entity.OTPChallenge, err error) {
	ctx, span := s.startSpan(ctx, "GetLatestSentChallenge")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM otp_logs
		 WHERE phone_number = $1 AND status = $2
		 ORDER BY sent_at DESC, id DESC LIMIT 1`,
		phone, string(entity.OTPStatusSent))

	c, err := scanChallenge(row)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &c, nil
}

func (s *DB) TransitionChallenge(ctx context.Context, id int64, to entity.OTPStatus, verifiedAt *time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "TransitionChallenge")
	defer func() { s.endSpan(span, err) }()

	if !to.Terminal() {
		err = entity.ErrNonTerminalStatus
		return false, err
	}

	tag, err := s.conn.Exec(ctx,
		`UPDATE otp_logs SET status = $1, verified_at = $2 WHERE id = $3 AND status = $4`,
		string(to), verifiedAt, id, string(entity.OTPStatusSent))
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) ListChallenges(ctx context.Context, limit int) (_ []entity.OTPChallenge, err error) {
	ctx, span := s.startSpan(ctx, "ListChallenges")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`SELECT `+challengeColumns+` FROM otp_logs ORDER BY sent_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.OTPChallenge, 0, limit)
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
