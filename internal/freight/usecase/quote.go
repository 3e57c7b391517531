package usecase

import (
	"context"

	"github.com/shandysiswandi/freightbite/internal/freight/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
)

type QuoteInput struct {
	SourceLat      float64 `validate:"latitude"`
	SourceLng      float64 `validate:"longitude"`
	DestinationLat float64 `validate:"latitude"`
	DestinationLng float64 `validate:"longitude"`
	WeightKG       float64 `validate:"gt=0,lte=100000"`
}

// Quote prices a shipment without storing anything.
func (s *Usecase) Quote(ctx context.Context, in QuoteInput) (*entity.Quote, error) {
	ctx, span := s.startSpan(ctx, "Quote")
	defer span.End()

	if _, err := authenticated(ctx); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	q := s.pricing.Quote(in.SourceLat, in.SourceLng, in.DestinationLat, in.DestinationLng, in.WeightKG)
	return &q, nil
}
