package service

import (
	"math"
	"time"

	"rideq/internal/config"
	"rideq/internal/domain"
	"rideq/internal/money"
)

// holiday is a recurring calendar date with a fare discount.
type holiday struct {
	Month time.Month
	Day   int
}

// defaultHolidays are the discount dates: New Year's, July 4th, Thanksgiving
// week, Christmas.
var defaultHolidays = []holiday{
	{time.January, 1},
	{time.July, 4},
	{time.November, 25},
	{time.December, 25},
}

// FareService computes the canonical price for a trip. This is the only
// pricing formula in the system; nothing else derives a billable amount.
type FareService struct {
	cfg      config.PricingConfig
	holidays []holiday
}

// NewFareService creates a new FareService.
func NewFareService(cfg config.PricingConfig) *FareService {
	return &FareService{cfg: cfg, holidays: defaultHolidays}
}

// QuoteInput carries the pricing conditions for one quote.
type QuoteInput struct {
	DistanceMiles   float64
	At              time.Time // scheduled time, or now for on-demand
	DemandLevel     domain.DemandLevel
	SurgeMultiplier float64
	PromoDiscount   float64 // fraction; 0 when no valid promo
}

// Quote computes a price breakdown. Multipliers compose in a fixed order:
// platform discount, then surge, then holiday, then promo. Intermediate
// values keep full precision; rounding happens once at the end.
func (s *FareService) Quote(in QuoteInput) (*domain.PriceQuote, error) {
	if in.DistanceMiles <= 0 {
		return nil, ErrInvalidDistance
	}
	if in.DistanceMiles > s.cfg.MaxDistanceMiles {
		return nil, ErrUnreasonableDistance
	}

	surge := in.SurgeMultiplier
	if surge < 1.0 {
		surge = 1.0
	}

	isHoliday := s.IsHoliday(in.At)

	price := s.cfg.BaseFare + in.DistanceMiles*s.cfg.PerMile
	price *= 1 - s.cfg.PlatformDiscount
	price *= surge
	if isHoliday {
		price *= 1 - s.cfg.HolidayDiscount
	}
	if in.PromoDiscount > 0 {
		price *= 1 - in.PromoDiscount
	}

	return &domain.PriceQuote{
		DistanceMiles:   in.DistanceMiles,
		BaseFare:        s.cfg.BaseFare,
		PerMile:         s.cfg.PerMile,
		SurgeMultiplier: surge,
		DemandLevel:     in.DemandLevel,
		IsHoliday:       isHoliday,
		PromoDiscount:   in.PromoDiscount,
		EstimatedTime:   s.estimateTime(in.DistanceMiles),
		Price:           money.FromDollars(price).Dollars(),
	}, nil
}

// IsHoliday reports whether the date falls on a configured holiday.
func (s *FareService) IsHoliday(at time.Time) bool {
	for _, h := range s.holidays {
		if at.Month() == h.Month && at.Day() == h.Day {
			return true
		}
	}
	return false
}

// estimateTime derives an advisory trip duration from distance at the
// configured average speed. It is never billed.
func (s *FareService) estimateTime(distanceMiles float64) time.Duration {
	if s.cfg.AvgSpeedMph <= 0 {
		return 0
	}
	minutes := distanceMiles / s.cfg.AvgSpeedMph * 60
	return time.Duration(math.Ceil(minutes)) * time.Minute
}
