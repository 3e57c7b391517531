package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/freightbite/internal/freight/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/authz"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
)

type AdminRequestUpdateStatusInput struct {
	ID     int64  `validate:"gt=0"`
	Status string `validate:"required,freightstatus"`
}

// AdminRequestUpdateStatus moves a request along its lifecycle. The write is
// conditional on the status read, so a concurrent change surfaces as a
// conflict instead of being overwritten.
func (s *Usecase) AdminRequestUpdateStatus(ctx context.Context, in AdminRequestUpdateStatusInput) (*entity.Request, error) {
	ctx, span := s.startSpan(ctx, "AdminRequestUpdateStatus")
	defer span.End()

	auth, err := s.authenticatedAndAuthorized(ctx, authz.ObjectFreightRequests, authz.ActWrite)
	if err != nil {
		return nil, err
	}

	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	req, err := s.repoDB.GetRequest(ctx, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Freight request not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get freight request", "request_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	old, next := req.Status, entity.Status(in.Status)
	if !old.CanTransition(next) {
		return nil, goerror.NewBusinessWrap(entity.ErrIllegalTransition,
			"Status cannot change from "+old.String()+" to "+next.String(), goerror.CodeConflict)
	}

	now := s.clock.Now()
	moved, err := s.repoDB.UpdateRequestStatus(ctx, req.ID, old, next, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update freight request status", "request_id", req.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !moved {
		return nil, goerror.NewBusinessWrap(entity.ErrStaleStatus,
			"Freight request was changed by someone else, reload and retry", goerror.CodeConflict)
	}

	req.Status, req.UpdatedAt = next, now

	slog.InfoContext(ctx, "freight request status changed",
		"request_id", req.ID, "old_status", old, "new_status", next, "admin_id", auth.UserID)

	if s.repoMessaging != nil {
		if err := s.repoMessaging.PublishStatusChanged(ctx, *req, old); err != nil {
			slog.WarnContext(ctx, "failed to publish freight status change", "request_id", req.ID, "error", err)
		}
	}

	return req, nil
}
