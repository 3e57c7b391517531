package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/freightbite/internal/freight/entity"
)

type QuoteRequest struct {
	SourceLat      float64 `json:"source_lat" example:"35.6892"`
	SourceLng      float64 `json:"source_lng" example:"51.3890"`
	DestinationLat float64 `json:"destination_lat" example:"32.6546"`
	DestinationLng float64 `json:"destination_lng" example:"51.6680"`
	WeightKG       float64 `json:"weight_kg" example:"120"`
}

type QuoteResponse struct {
	DistanceKM      float64 `json:"distance_km"`
	WeightKG        float64 `json:"weight_kg"`
	CalculatedPrice int64   `json:"calculated_price"`
}

type RequestCreateRequest struct {
	SourceAddress      string  `json:"source_address"`
	SourceLat          float64 `json:"source_lat"`
	SourceLng          float64 `json:"source_lng"`
	DestinationAddress string  `json:"destination_address"`
	DestinationLat     float64 `json:"destination_lat"`
	DestinationLng     float64 `json:"destination_lng"`
	WeightKG           float64 `json:"weight_kg"`
}

type RequestResponse struct {
	ID                 int64     `json:"id,string"`
	UserID             int64     `json:"user_id,string"`
	PhoneNumber        string    `json:"phone_number"`
	SourceAddress      string    `json:"source_address"`
	SourceLat          float64   `json:"source_lat"`
	SourceLng          float64   `json:"source_lng"`
	DestinationAddress string    `json:"destination_address"`
	DestinationLat     float64   `json:"destination_lat"`
	DestinationLng     float64   `json:"destination_lng"`
	DistanceKM         float64   `json:"distance_km"`
	WeightKG           float64   `json:"weight_kg"`
	CalculatedPrice    int64     `json:"calculated_price"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toRequestResponse(r entity.Request) RequestResponse {
	return RequestResponse{
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
		Status:             r.Status.String(),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type RequestCreateResponse struct {
	RequestResponse
}

func (RequestCreateResponse) StatusCode() int {
	return http.StatusCreated
}

type RequestListResponse struct {
	Requests []RequestResponse `json:"requests"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" example:"confirmed"`
}

type ExportResponse struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expires_at"`
}
