package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/freightbite/internal/freight/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
)

type RequestListInput struct {
	Page int
	Size int
}

// RequestList returns the caller's own requests, newest first.
func (s *Usecase) RequestList(ctx context.Context, in RequestListInput) ([]entity.Request, error) {
	ctx, span := s.startSpan(ctx, "RequestList")
	defer span.End()

	auth, err := authenticated(ctx)
	if err != nil {
		return nil, err
	}

	limit, offset := page(in.Page, in.Size)
	reqs, err := s.repoDB.ListRequests(ctx, entity.ListFilter{UserID: auth.UserID, Limit: limit, Offset: offset})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list freight requests", "user_id", auth.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return reqs, nil
}
