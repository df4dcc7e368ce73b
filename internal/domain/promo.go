package domain

import "time"

// PromoCode is a promotional discount. Single-use codes record the ride that
// consumed them; concurrent redemption resolves with exactly one winner.
type PromoCode struct {
	Code           string
	Discount       float64 // fraction, e.g. 0.10
	SingleUse      bool
	RedeemedByRide string
	ExpiresAt      time.Time // zero means no expiry
	CreatedAt      time.Time
}

// Usable reports whether the code can still back a booking at the given time.
func (p *PromoCode) Usable(now time.Time) bool {
	if !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt) {
		return false
	}
	if p.SingleUse && p.RedeemedByRide != "" {
		return false
	}
	return true
}
