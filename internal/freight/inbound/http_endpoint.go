package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/freightbite/internal/freight/entity"
	"github.com/shandysiswandi/freightbite/internal/freight/usecase"
	"github.com/shandysiswandi/freightbite/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// Quote prices a shipment.
// @Summary Quote a shipment
// @Tags Freight
// @Accept json
// @Produce json
// @Param request body QuoteRequest true "Route and weight"
// @Success 200 {object} QuoteResponse
// @Failure 400 {object} router.errorResponse "Invalid coordinates or weight"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/v1/freight/quote [post]
func (h *HTTPEndpoint) Quote(r *router.Request) (any, error) {
	var req QuoteRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	q, err := h.uc.Quote(r.Context(), usecase.QuoteInput{
		SourceLat:      req.SourceLat,
		SourceLng:      req.SourceLng,
		DestinationLat: req.DestinationLat,
		DestinationLng: req.DestinationLng,
		WeightKG:       req.WeightKG,
	})
	if err != nil {
		return nil, err
	}

	return QuoteResponse{DistanceKM: q.DistanceKM, WeightKG: q.WeightKG, CalculatedPrice: q.Price}, nil
}

// RequestCreate books a shipment for the current user.
// @Summary Create freight request
// @Tags Freight
// @Accept json
// @Produce json
// @Param request body RequestCreateRequest true "Shipment"
// @Success 201 {object} RequestResponse
// @Failure 400 {object} router.errorResponse "Validation error"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/v1/freight/requests [post]
func (h *HTTPEndpoint) RequestCreate(r *router.Request) (any, error) {
	var req RequestCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	fr, err := h.uc.RequestCreate(r.Context(), usecase.RequestCreateInput{
		SourceAddress:      req.SourceAddress,
		SourceLat:          req.SourceLat,
		SourceLng:          req.SourceLng,
		DestinationAddress: req.DestinationAddress,
		DestinationLat:     req.DestinationLat,
		DestinationLng:     req.DestinationLng,
		WeightKG:           req.WeightKG,
	})
	if err != nil {
		return nil, err
	}

	return RequestCreateResponse{toRequestResponse(*fr)}, nil
}

// RequestList lists the current user's requests.
// @Summary My freight requests
// @Tags Freight
// @Produce json
// @Param page query int false "Page, 1-based"
// @Param size query int false "Page size, max 100"
// @Success 200 {object} RequestListResponse
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/v1/freight/requests [get]
func (h *HTTPEndpoint) RequestList(r *router.Request) (any, error) {
	page, size, err := pagination(r)
	if err != nil {
		return nil, err
	}

	reqs, err := h.uc.RequestList(r.Context(), usecase.RequestListInput{Page: page, Size: size})
	if err != nil {
		return nil, err
	}

	return listResponse(reqs), nil
}

// AdminRequestList lists every request, optionally by status.
// @Summary All freight requests
// @Tags Admin
// @Produce json
// @Param status query string false "pending, confirmed, completed or cancelled"
// @Param page query int false "Page, 1-based"
// @Param size query int false "Page size, max 100"
// @Success 200 {object} RequestListResponse
// @Failure 403 {object} router.errorResponse "Account not allowed"
// @Router /api/v1/admin/freight/requests [get]
func (h *HTTPEndpoint) AdminRequestList(r *router.Request) (any, error) {
	page, size, err := pagination(r)
	if err != nil {
		return nil, err
	}

	reqs, err := h.uc.AdminRequestList(r.Context(), usecase.AdminRequestListInput{
		Status: r.GetQuery("status"),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		return nil, err
	}

	return listResponse(reqs), nil
}

// AdminRequestUpdateStatus changes a request's status.
// @Summary Update freight request status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} RequestResponse
// @Failure 404 {object} router.errorResponse "Freight request not found"
// @Failure 409 {object} router.errorResponse "Transition not allowed"
// @Router /api/v1/admin/freight/requests/{id} [patch]
func (h *HTTPEndpoint) AdminRequestUpdateStatus(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req UpdateStatusRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	fr, err := h.uc.AdminRequestUpdateStatus(r.Context(), usecase.AdminRequestUpdateStatusInput{ID: id, Status: req.Status})
	if err != nil {
		return nil, err
	}

	return toRequestResponse(*fr), nil
}

// AdminRequestExport exports every request as CSV.
// @Summary Export freight requests
// @Tags Admin
// @Produce json
// @Success 200 {object} ExportResponse "Presigned download link"
// @Failure 503 {object} router.errorResponse "Export storage is not configured"
// @Router /api/v1/admin/freight/requests/export [post]
func (h *HTTPEndpoint) AdminRequestExport(r *router.Request) (any, error) {
	out, err := h.uc.AdminRequestExport(r.Context())
	if err != nil {
		return nil, err
	}

	return ExportResponse{URL: out.URL, Key: out.Key, Count: out.Count, ExpiresAt: out.ExpiresAt}, nil
}

func pagination(r *router.Request) (page, size int, err error) {
	if page, err = r.GetQueryInt("page", 1); err != nil {
		return 0, 0, err
	}
	if size, err = r.GetQueryInt("size", 20); err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

func listResponse(reqs []entity.Request) RequestListResponse {
	return RequestListResponse{Requests: lo.Map(reqs, func(r entity.Request, _ int) RequestResponse {
		return toRequestResponse(r)
	})}
}
