package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"rideq/internal/domain"
	"rideq/internal/repository"
)

// PromoService validates and redeems promotional codes.
type PromoService struct {
	promoRepo repository.PromoRepository
}

// NewPromoService creates a new PromoService.
func NewPromoService(promoRepo repository.PromoRepository) *PromoService {
	return &PromoService{promoRepo: promoRepo}
}

// PromoResult is the outcome of validating a code.
type PromoResult struct {
	Valid    bool
	Discount float64
}

// Validate checks a code. Unknown, expired, or consumed codes are simply
// invalid with zero discount, never an error; booking proceeds undiscounted.
func (s *PromoService) Validate(ctx context.Context, code string) (PromoResult, error) {
	code = normalizeCode(code)
	if code == "" {
		return PromoResult{}, nil
	}

	promo, err := s.promoRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return PromoResult{}, nil
		}
		return PromoResult{}, err
	}

	if !promo.Usable(time.Now()) {
		return PromoResult{}, nil
	}
	return PromoResult{Valid: true, Discount: promo.Discount}, nil
}

// Redeem consumes a single-use code for a ride. Concurrent redemptions of
// the same code resolve with exactly one winner.
func (s *PromoService) Redeem(ctx context.Context, code, rideID string) error {
	code = normalizeCode(code)
	if code == "" || rideID == "" {
		return nil
	}

	err := s.promoRepo.Redeem(ctx, code, rideID)
	if errors.Is(err, repository.ErrConflict) {
		return ErrPromoAlreadyRedeemed
	}
	return err
}

// Seed inserts a promo code, for bootstrap and tests.
func (s *PromoService) Seed(ctx context.Context, promo *domain.PromoCode) error {
	promo.Code = normalizeCode(promo.Code)
	if promo.CreatedAt.IsZero() {
		promo.CreatedAt = time.Now()
	}
	return s.promoRepo.Create(ctx, promo)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
