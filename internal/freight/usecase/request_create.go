package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/freightbite/internal/freight/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
)

type RequestCreateInput struct {
	SourceAddress      string  `validate:"required,max=500"`
	SourceLat          float64 `validate:"latitude"`
	SourceLng          float64 `validate:"longitude"`
	DestinationAddress string  `validate:"required,max=500"`
	DestinationLat     float64 `validate:"latitude"`
	DestinationLng     float64 `validate:"longitude"`
	WeightKG           float64 `validate:"gt=0,lte=100000"`
}

// RequestCreate books a shipment for the caller. Distance and price are
// always computed here; client figures are ignored.
func (s *Usecase) RequestCreate(ctx context.Context, in RequestCreateInput) (*entity.Request, error) {
	ctx, span := s.startSpan(ctx, "RequestCreate")
	defer span.End()

	auth, err := authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.SourceAddress = strings.TrimSpace(in.SourceAddress)
	in.DestinationAddress = strings.TrimSpace(in.DestinationAddress)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	q := s.pricing.Quote(in.SourceLat, in.SourceLng, in.DestinationLat, in.DestinationLng, in.WeightKG)
	now := s.clock.Now()

	req := entity.Request{
		ID:                 s.uid.Generate(),
		UserID:             auth.UserID,
		PhoneNumber:        auth.PhoneNumber,
		SourceAddress:      in.SourceAddress,
		SourceLat:          in.SourceLat,
		SourceLng:          in.SourceLng,
		DestinationAddress: in.DestinationAddress,
		DestinationLat:     in.DestinationLat,
		DestinationLng:     in.DestinationLng,
		DistanceKM:         q.DistanceKM,
		WeightKG:           q.WeightKG,
		CalculatedPrice:    q.Price,
		Status:             entity.StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repoDB.CreateRequest(ctx, req); err != nil {
		slog.ErrorContext(ctx, "failed to repo create freight request", "user_id", auth.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "freight request created", "request_id", req.ID, "user_id", auth.UserID, "price", req.CalculatedPrice)

	return &req, nil
}
