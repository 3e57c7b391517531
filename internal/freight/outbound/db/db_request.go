package db

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/freightbite/internal/freight/entity"
)

func (s *DB) CreateRequest(ctx context.Context, in entity.Request) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRequest")
	defer func() { s.endSpan(span, err) }()

	row := fromEntity(in)
	err = s.mapError(s.conn.WithContext(ctx).Create(&row).Error)
	return err
}

func (s *DB) GetRequest(ctx context.Context, id int64) (_ *entity.Request, err error) {
	ctx, span := s.startSpan(ctx, "GetRequest")
	defer func() { s.endSpan(span, err) }()

	var row FreightRequest
	if err = s.conn.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		err = s.mapError(err)
		return nil, err
	}

	out := row.entity()
	return &out, nil
}

// ListRequests returns requests newest first.
func (s *DB) ListRequests(ctx context.Context, f entity.ListFilter) (_ []entity.Request, err error) {
	ctx, span := s.startSpan(ctx, "ListRequests")
	defer func() { s.endSpan(span, err) }()

	q := s.conn.WithContext(ctx).Model(&FreightRequest{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var rows []FreightRequest
	if err = q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return lo.Map(rows, func(r FreightRequest, _ int) entity.Request { return r.entity() }), nil
}

// UpdateRequestStatus moves a request from old to next only if it is still
// in old. It reports whether a row changed.
func (s *DB) UpdateRequestStatus(ctx context.Context, id int64, old, next entity.Status, at time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UpdateRequestStatus")
	defer func() { s.endSpan(span, err) }()

	res := s.conn.WithContext(ctx).Model(&FreightRequest{}).
		Where("id = ? AND status = ?", id, string(old)).
		Updates(map[string]any{"status": string(next), "updated_at": at.UTC()})
	if res.Error != nil {
		err = s.mapError(res.Error)
		return false, err
	}

	return res.RowsAffected == 1, nil
}
