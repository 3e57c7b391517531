package entity

import "math"

const earthRadiusKM = 6371.0

// Pricing is the linear tariff: base + km*PerKM + kg*PerKG, in Toman.
type Pricing struct {
	Base  float64
	PerKM float64
	PerKG float64
}

// DefaultPricing is the published tariff.
var DefaultPricing = Pricing{Base: 5000, PerKM: 10000, PerKG: 400}

// Quote is a priced route.
type Quote struct {
	DistanceKM float64
	WeightKG   float64
	Price      int64
}

// Quote prices a shipment of weightKG between two points. Distance is
// rounded to two decimals before pricing.
func (p Pricing) Quote(srcLat, srcLng, dstLat, dstLng, weightKG float64) Quote {
	d := round2(Haversine(srcLat, srcLng, dstLat, dstLng))
	return Quote{
		DistanceKM: d,
		WeightKG:   weightKG,
		Price:      int64(math.Round(p.Base + d*p.PerKM + weightKG*p.PerKG)),
	}
}

// Haversine is the great-circle distance in kilometres.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
