package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/freightbite/internal/freight/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/authz"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
)

type AdminRequestListInput struct {
	Status string `validate:"omitempty,freightstatus"`
	Page   int
	Size   int
}

func (s *Usecase) AdminRequestList(ctx context.Context, in AdminRequestListInput) ([]entity.Request, error) {
	ctx, span := s.startSpan(ctx, "AdminRequestList")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx, authz.ObjectFreightRequests, authz.ActRead); err != nil {
		return nil, err
	}

	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	limit, offset := page(in.Page, in.Size)
	reqs, err := s.repoDB.ListRequests(ctx, entity.ListFilter{
		Status: entity.Status(in.Status),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list freight requests", "status", in.Status, "error", err)
		return nil, goerror.NewServer(err)
	}

	return reqs, nil
}
