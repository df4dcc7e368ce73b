package domain

import "time"

// DemandLevel classifies the open-requests-to-drivers ratio for a region.
type DemandLevel string

const (
	DemandLow      DemandLevel = "Low"
	DemandModerate DemandLevel = "Moderate"
	DemandHigh     DemandLevel = "High"
)

// PriceQuote is an ephemeral price breakdown for a candidate trip. It is
// advisory: the multiplier is not locked until a booking confirms, at which
// point the ride snapshots whatever conditions are current.
type PriceQuote struct {
	DistanceMiles   float64
	BaseFare        float64
	PerMile         float64
	SurgeMultiplier float64
	DemandLevel     DemandLevel
	IsHoliday       bool
	PromoDiscount   float64
	EstimatedTime   time.Duration
	Price           float64 // dollars, rounded half-up to 2 decimals
}
