package inbound

import (
	"context"

	"github.com/shandysiswandi/freightbite/internal/freight/entity"
	"github.com/shandysiswandi/freightbite/internal/freight/usecase"
	"github.com/shandysiswandi/freightbite/internal/pkg/router"
)

type uc interface {
	Quote(ctx context.Context, in usecase.QuoteInput) (*entity.Quote, error)
	RequestCreate(ctx context.Context, in usecase.RequestCreateInput) (*entity.Request, error)
	RequestList(ctx context.Context, in usecase.RequestListInput) ([]entity.Request, error)

	AdminRequestList(ctx context.Context, in usecase.AdminRequestListInput) ([]entity.Request, error)
	AdminRequestUpdateStatus(ctx context.Context, in usecase.AdminRequestUpdateStatusInput) (*entity.Request, error)
	AdminRequestExport(ctx context.Context) (*usecase.AdminRequestExportOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// need authenticated
	r.POST("/api/v1/freight/quote", end.Quote)
	r.POST("/api/v1/freight/requests", end.RequestCreate)
	r.GET("/api/v1/freight/requests", end.RequestList)

	// need authenticated & authorization
	r.GET("/api/v1/admin/freight/requests", end.AdminRequestList)
	r.PATCH("/api/v1/admin/freight/requests/:id", end.AdminRequestUpdateStatus)
	r.POST("/api/v1/admin/freight/requests/export", end.AdminRequestExport)
}
