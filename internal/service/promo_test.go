package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rideq/internal/domain"
	"rideq/internal/repository"
)

// memPromoRepo is an in-memory PromoRepository with compare-and-set Redeem.
type memPromoRepo struct {
	mu     sync.Mutex
	promos map[string]*domain.PromoCode
}

func newMemPromoRepo() *memPromoRepo {
	return &memPromoRepo{promos: make(map[string]*domain.PromoCode)}
}

func (r *memPromoRepo) Create(ctx context.Context, promo *domain.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *promo
	r.promos[promo.Code] = &copy
	return nil
}

func (r *memPromoRepo) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	promo, ok := r.promos[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *promo
	return &copy, nil
}

func (r *memPromoRepo) Redeem(ctx context.Context, code, rideID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	promo, ok := r.promos[code]
	if !ok {
		return repository.ErrNotFound
	}
	if !promo.SingleUse {
		return nil
	}
	if promo.RedeemedByRide != "" {
		return repository.ErrConflict
	}
	promo.RedeemedByRide = rideID
	return nil
}

func TestPromoValidate_UnknownCodeIsInvalidNotError(t *testing.T) {
	t.Parallel()
	svc := NewPromoService(newMemPromoRepo())

	result, err := svc.Validate(context.Background(), "NOSUCHCODE")
	if err != nil {
		t.Fatalf("unknown code must not error: %v", err)
	}
	if result.Valid || result.Discount != 0 {
		t.Errorf("expected invalid with zero discount, got %+v", result)
	}
}

func TestPromoValidate_ExpiredCodeIsInvalid(t *testing.T) {
	t.Parallel()
	repo := newMemPromoRepo()
	svc := NewPromoService(repo)
	ctx := context.Background()

	if err := svc.Seed(ctx, &domain.PromoCode{
		Code:      "OLDCODE",
		Discount:  0.20,
		ExpiresAt: time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := svc.Validate(ctx, "OLDCODE")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Valid {
		t.Error("expired code must be invalid")
	}
}

func TestPromoValidate_NormalizesCase(t *testing.T) {
	t.Parallel()
	repo := newMemPromoRepo()
	svc := NewPromoService(repo)
	ctx := context.Background()

	if err := svc.Seed(ctx, &domain.PromoCode{Code: "save10", Discount: 0.10}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := svc.Validate(ctx, "  Save10 ")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !result.Valid || result.Discount != 0.10 {
		t.Errorf("expected valid 0.10 discount, got %+v", result)
	}
}

func TestPromoRedeem_SingleUseSecondLoses(t *testing.T) {
	t.Parallel()
	repo := newMemPromoRepo()
	svc := NewPromoService(repo)
	ctx := context.Background()

	if err := svc.Seed(ctx, &domain.PromoCode{Code: "ONCE", Discount: 0.10, SingleUse: true}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := svc.Redeem(ctx, "ONCE", "ride-1"); err != nil {
		t.Fatalf("first redemption failed: %v", err)
	}
	if err := svc.Redeem(ctx, "ONCE", "ride-2"); !errors.Is(err, ErrPromoAlreadyRedeemed) {
		t.Errorf("expected ErrPromoAlreadyRedeemed, got %v", err)
	}

	promo, _ := repo.GetByCode(ctx, "ONCE")
	if promo.RedeemedByRide != "ride-1" {
		t.Errorf("winner should be ride-1, got %s", promo.RedeemedByRide)
	}
}

func TestPromoRedeem_MultiUseRepeatable(t *testing.T) {
	t.Parallel()
	repo := newMemPromoRepo()
	svc := NewPromoService(repo)
	ctx := context.Background()

	if err := svc.Seed(ctx, &domain.PromoCode{Code: "ALWAYS", Discount: 0.05}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	for i, rideID := range []string{"ride-1", "ride-2", "ride-3"} {
		if err := svc.Redeem(ctx, "ALWAYS", rideID); err != nil {
			t.Fatalf("redemption %d failed: %v", i+1, err)
		}
	}
}
