package entity

import (
	"math"
	"testing"
)

func TestStatusCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusConfirmed, StatusPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled} {
		if !s.Valid() {
			t.Errorf("%s.Valid() = false", s)
		}
	}
	if Status("shipped").Valid() {
		t.Error("unknown status reported valid")
	}
}

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
	}{
		{name: "same point", lat1: 35.6892, lng1: 51.3890, lat2: 35.6892, lng2: 51.3890, want: 0},
		{name: "one degree of latitude", lat1: 0, lng1: 0, lat2: 1, lng2: 0, want: 111.19},
		{name: "tehran to isfahan", lat1: 35.6892, lng1: 51.3890, lat2: 32.6546, lng2: 51.6680, want: 338},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.want) > 1 {
				t.Fatalf("Haversine() = %.2f, want about %.2f", got, tt.want)
			}
		})
	}
}

func TestPricingQuote(t *testing.T) {
	q := DefaultPricing.Quote(0, 0, 1, 0, 100)

	if q.DistanceKM != 111.19 {
		t.Fatalf("distance = %v, want 111.19", q.DistanceKM)
	}
	// 5000 + 111.19*10000 + 100*400
	if q.Price != 1156900 {
		t.Fatalf("price = %d, want 1156900", q.Price)
	}

	same := DefaultPricing.Quote(35.7, 51.4, 35.7, 51.4, 2.5)
	if same.DistanceKM != 0 || same.Price != 6000 {
		t.Fatalf("zero distance quote = %+v, want price 6000", same)
	}
}
