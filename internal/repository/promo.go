package repository

import (
	"context"

	"rideq/internal/domain"
)

// PromoRepository defines persistence for promotional codes.
type PromoRepository interface {
	Create(ctx context.Context, promo *domain.PromoCode) error

	GetByCode(ctx context.Context, code string) (*domain.PromoCode, error)

	// Redeem consumes a single-use code for a ride, compare-and-set on the
	// code being unredeemed. Exactly one concurrent caller wins; the rest
	// get ErrConflict.
	Redeem(ctx context.Context, code, rideID string) error
}
