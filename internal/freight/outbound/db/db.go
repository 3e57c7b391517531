// Package db stores freight requests through gorm. The same code serves the
// Postgres and SQLite dialects; the schema itself is owned by migrations.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/freightbite/internal/freight/entity"
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
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return goerror.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return goerror.ErrConflict
	default:
		return err
	}
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("freight.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// FreightRequest is the row model of freight_requests.
type FreightRequest struct {
	ID                 int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID             int64
	PhoneNumber        string
	SourceAddress      string
	SourceLat          float64
	SourceLng          float64
	DestinationAddress string
	DestinationLat     float64
	DestinationLng     float64
	DistanceKM         float64 `gorm:"column:distance_km"`
	WeightKG           float64 `gorm:"column:weight_kg"`
	CalculatedPrice    int64
	Status             string
	CreatedAt          time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime:false"`
}

func (FreightRequest) TableName() string {
	return "freight_requests"
}

func fromEntity(r entity.Request) FreightRequest {
	return FreightRequest{
		ID:                 r.ID,
		UserID:             r.UserID,
		PhoneNumber:        r.PhoneNumber,
		SourceAddress:      r.SourceAddress,
		SourceLat:          r.SourceLat,
		SourceLng:          r.SourceLng,
		DestinationAddress: r.DestinationAddress,
		DestinationLat:     r.DestinationLat,
		DestinationLng:     r.DestinationLng,
		DistanceKM:         r.DistanceKM,
		WeightKG:           r.WeightKG,
		CalculatedPrice:    r.CalculatedPrice,
		Status:             string(r.Status),
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
}

func (m FreightRequest) entity() entity.Request {
	return entity.Request{
		ID:                 m.ID,
		UserID:             m.UserID,
		PhoneNumber:        m.PhoneNumber,
		SourceAddress:      m.SourceAddress,
		SourceLat:          m.SourceLat,
		SourceLng:          m.SourceLng,
		DestinationAddress: m.DestinationAddress,
		DestinationLat:     m.DestinationLat,
		DestinationLng:     m.DestinationLng,
		DistanceKM:         m.DistanceKM,
		WeightKG:           m.WeightKG,
		CalculatedPrice:    m.CalculatedPrice,
		Status:             entity.Status(m.Status),
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}
