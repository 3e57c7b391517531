package entity

import (
	"errors"
	"time"
)

var (
	ErrIllegalTransition = errors.New("freight request status transition not allowed")
	ErrStaleStatus       = errors.New("freight request status changed concurrently")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a request may move from s to to.
// Completed and cancelled are final.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type Request struct {
	ID                 int64
	UserID             int64
	PhoneNumber        string
	SourceAddress      string
	SourceLat          float64
	SourceLng          float64
	DestinationAddress string
	DestinationLat     float64
	DestinationLng     float64
	DistanceKM         float64
	WeightKG           float64
	CalculatedPrice    int64
	Status             Status
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ListFilter narrows request listings. Zero values mean no filter.
type ListFilter struct {
	UserID int64
	Status Status
	Limit  int
	Offset int
}
