package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rideq/internal/config"
	"rideq/internal/domain"
	"rideq/internal/service"
)

// testFixture wires the ride pipeline against mocks.
type testFixture struct {
	rideRepo       *MockRideRepository
	settlementRepo *MockSettlementRepository
	promoRepo      *MockPromoRepository
	demandStore    *MockDemandStore
	charges        *service.MockChargeProcessor

	fare              *service.FareService
	rideService       *service.RideService
	settlementService *service.SettlementService
}

func newTestFixture() *testFixture {
	cfg := config.Load()

	f := &testFixture{
		rideRepo:       NewMockRideRepository(),
		settlementRepo: NewMockSettlementRepository(),
		promoRepo:      NewMockPromoRepository(),
		demandStore:    NewMockDemandStore(),
		charges:        service.NewMockChargeProcessor(),
	}

	f.fare = service.NewFareService(cfg.Pricing)
	demand := service.NewDemandService(f.demandStore, cfg.Surge)
	promo := service.NewPromoService(f.promoRepo)
	f.settlementService = service.NewSettlementService(f.settlementRepo, NewMockRatingRepository())
	f.rideService = service.NewRideService(f.rideRepo, f.fare, demand, promo, f.settlementService, f.charges)

	return f
}

func (f *testFixture) bookRide(t *testing.T, customerID string) *domain.Ride {
	t.Helper()
	ride, err := f.rideService.BookRide(context.Background(), service.BookRideRequest{
		CustomerID:    customerID,
		Pickup:        domain.Location{Label: "Airport"},
		Dropoff:       domain.Location{Label: "Downtown"},
		DistanceMiles: 10,
	})
	if err != nil {
		t.Fatalf("failed to book ride: %v", err)
	}
	return ride
}

func TestBookRide_SnapshotsPrice(t *testing.T) {
	t.Parallel()
	f := newTestFixture()

	ride := f.bookRide(t, "customer-1")

	if ride.Status != domain.RideStatusPending {
		t.Errorf("expected pending, got %s", ride.Status)
	}
	// (2.50 + 10*1.75) * 0.85 = 17.00, assuming no surge and no holiday.
	if !f.fare.IsHoliday(time.Now()) && ride.Price.Dollars() != 17.00 {
		t.Errorf("expected price 17.00, got %.2f", ride.Price.Dollars())
	}
	if ride.PaymentStatus != domain.PaymentStatusUnpaid {
		t.Errorf("expected unpaid, got %s", ride.PaymentStatus)
	}
}

func TestBookRide_ScheduledStatus(t *testing.T) {
	t.Parallel()
	f := newTestFixture()

	ride, err := f.rideService.BookRide(context.Background(), service.BookRideRequest{
		CustomerID:    "customer-1",
		Pickup:        domain.Location{Label: "A"},
		Dropoff:       domain.Location{Label: "B"},
		DistanceMiles: 5,
		ScheduledTime: time.Now().Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to book scheduled ride: %v", err)
	}

	if ride.Status != domain.RideStatusScheduled {
		t.Errorf("expected scheduled, got %s", ride.Status)
	}
}

func TestBookRide_RejectsPastScheduledTime(t *testing.T) {
	t.Parallel()
	f := newTestFixture()

	_, err := f.rideService.BookRide(context.Background(), service.BookRideRequest{
		CustomerID:    "customer-1",
		Pickup:        domain.Location{Label: "A"},
		Dropoff:       domain.Location{Label: "B"},
		DistanceMiles: 5,
		ScheduledTime: time.Now().Add(-time.Hour),
	})
	if !errors.Is(err, service.ErrScheduledTimeInPast) {
		t.Errorf("expected ErrScheduledTimeInPast, got %v", err)
	}
}

func TestAcceptRide_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()
	f := newTestFixture()
	ride := f.bookRide(t, "customer-1")

	const drivers = 10
	var wins int32
	var wg sync.WaitGroup

	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			driverID := "driver-" + string(rune('a'+n))
			_, err := f.rideService.AcceptRide(context.Background(), ride.ID, driverID)
			if err == nil {
				atomic.AddInt32(&wins, 1)
			} else if !errors.Is(err, service.ErrRideAlreadyClaimed) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly 1 winning acceptance, got %d", wins)
	}

	stored := f.rideRepo.GetRide(ride.ID)
	if stored.Status != domain.RideStatusActive {
		t.Errorf("expected active, got %s", stored.Status)
	}
	if stored.DriverID == "" {
		t.Error("expected driver to be assigned")
	}
}

func TestCompleteRide_CreditsDriverOnce(t *testing.T) {
	t.Parallel()
	f := newTestFixture()
	ride := f.bookRide(t, "customer-1")

	ctx := context.Background()
	if _, err := f.rideService.AcceptRide(ctx, ride.ID, "driver-1"); err != nil {
		t.Fatalf("failed to accept ride: %v", err)
	}

	completed, err := f.rideService.CompleteRide(ctx, ride.ID)
	if err != nil {
		t.Fatalf("failed to complete ride: %v", err)
	}
	if completed.Status != domain.RideStatusCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}

	balance, err := f.settlementService.GetBalance(ctx, "driver-1")
	if err != nil {
		t.Fatalf("failed to get balance: %v", err)
	}
	if balance.TotalEarnings != ride.Price {
		t.Errorf("expected earnings %s, got %s", ride.Price, balance.TotalEarnings)
	}
	if balance.AvailableBalance != ride.Price {
		t.Errorf("expected available %s, got %s", ride.Price, balance.AvailableBalance)
	}
}

func TestCompleteRide_DuplicateEventDoesNotDoubleCredit(t *testing.T) {
	t.Parallel()
	f := newTestFixture()
	ride := f.bookRide(t, "customer-1")

	ctx := context.Background()
	if _, err := f.rideService.AcceptRide(ctx, ride.ID, "driver-1"); err != nil {
		t.Fatalf("failed to accept ride: %v", err)
	}

	// Deliver the completion event twice.
	if _, err := f.rideService.CompleteRide(ctx, ride.ID); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}
	if _, err := f.rideService.CompleteRide(ctx, ride.ID); err != nil {
		t.Fatalf("redelivered completion failed: %v", err)
	}

	balance, _ := f.settlementService.GetBalance(ctx, "driver-1")
	if balance.TotalEarnings != ride.Price {
		t.Errorf("expected single credit of %s, got %s", ride.Price, balance.TotalEarnings)
	}
}

func TestCompleteRide_RejectsUnclaimedRide(t *testing.T) {
	t.Parallel()
	f := newTestFixture()
	ride := f.bookRide(t, "customer-1")

	_, err := f.rideService.CompleteRide(context.Background(), ride.ID)
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestCancelRide_RejectsActiveRide(t *testing.T) {
	t.Parallel()
	f := newTestFixture()
	ride := f.bookRide(t, "customer-1")

	ctx := context.Background()
	if _, err := f.rideService.AcceptRide(ctx, ride.ID, "driver-1"); err != nil {
		t.Fatalf("failed to accept ride: %v", err)
	}

	_, err := f.rideService.CancelRide(ctx, ride.ID, "customer", "")
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestCancelRide_DefaultReason(t *testing.T) {
	t.Parallel()
	f := newTestFixture()
	ride := f.bookRide(t, "customer-1")

	cancelled, err := f.rideService.CancelRide(context.Background(), ride.ID, "customer", "")
	if err != nil {
		t.Fatalf("failed to cancel ride: %v", err)
	}
	if cancelled.Status != domain.RideStatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelReason != "cancelled by customer" {
		t.Errorf("unexpected cancel reason: %q", cancelled.CancelReason)
	}
}

func TestConfirmPayment_FailureLeavesRideRetryable(t *testing.T) {
	t.Parallel()
	f := newTestFixture()
	ride := f.bookRide(t, "customer-1")

	ctx := context.Background()
	f.charges.Err = errors.New("card declined")

	_, err := f.rideService.ConfirmPayment(ctx, ride.ID)
	if !errors.Is(err, service.ErrChargeFailed) {
		t.Fatalf("expected ErrChargeFailed, got %v", err)
	}

	stored := f.rideRepo.GetRide(ride.ID)
	if stored.Status != domain.RideStatusPending {
		t.Errorf("ride should stay pending after failed charge, got %s", stored.Status)
	}
	if stored.PaymentStatus != domain.PaymentStatusFailed {
		t.Errorf("expected failed payment status, got %s", stored.PaymentStatus)
	}

	// Retry succeeds once the processor recovers.
	f.charges.Err = nil
	paid, err := f.rideService.ConfirmPayment(ctx, ride.ID)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if paid.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("expected paid, got %s", paid.PaymentStatus)
	}
}

func TestConfirmPayment_Idempotent(t *testing.T) {
	t.Parallel()
	f := newTestFixture()
	ride := f.bookRide(t, "customer-1")

	ctx := context.Background()
	if _, err := f.rideService.ConfirmPayment(ctx, ride.ID); err != nil {
		t.Fatalf("first payment failed: %v", err)
	}

	// A second confirm must not charge again.
	f.charges.Err = errors.New("would double charge")
	paid, err := f.rideService.ConfirmPayment(ctx, ride.ID)
	if err != nil {
		t.Fatalf("repeat confirm failed: %v", err)
	}
	if paid.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("expected paid, got %s", paid.PaymentStatus)
	}
}

func TestExpireScheduled_CancelsStaleRides(t *testing.T) {
	t.Parallel()
	f := newTestFixture()

	// Seed a scheduled ride whose time passed beyond the grace period.
	stale := &domain.Ride{
		ID:            "ride-stale",
		CustomerID:    "customer-1",
		Status:        domain.RideStatusScheduled,
		ScheduledTime: time.Now().Add(-time.Hour),
		CreatedAt:     time.Now().Add(-2 * time.Hour),
	}
	f.rideRepo.AddRide(stale)

	expired, err := f.rideService.ExpireScheduled(context.Background(), 15*time.Minute)
	if err != nil {
		t.Fatalf("expiry sweep failed: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired ride, got %d", expired)
	}

	stored := f.rideRepo.GetRide("ride-stale")
	if stored.Status != domain.RideStatusCancelled {
		t.Errorf("expected cancelled, got %s", stored.Status)
	}
	if stored.CancelReason != "expired" {
		t.Errorf("unexpected cancel reason: %q", stored.CancelReason)
	}
}

func TestBookRide_SingleUsePromoOneWinner(t *testing.T) {
	t.Parallel()
	f := newTestFixture()

	ctx := context.Background()
	if err := f.promoRepo.Create(ctx, &domain.PromoCode{
		Code:      "SAVE10",
		Discount:  0.10,
		SingleUse: true,
	}); err != nil {
		t.Fatalf("failed to seed promo: %v", err)
	}

	// Losing the redemption race is not a booking failure: the ride goes
	// through at full price. Only the narrow validate-then-redeem window
	// surfaces ErrPromoAlreadyRedeemed. Exactly one ride may carry the
	// discount.
	const bookings = 8
	var (
		mu           sync.Mutex
		discounted   []*domain.Ride
		undiscounted []*domain.Ride
	)
	var wg sync.WaitGroup

	for i := 0; i < bookings; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ride, err := f.rideService.BookRide(ctx, service.BookRideRequest{
				CustomerID:    "customer-1",
				Pickup:        domain.Location{Label: "A"},
				Dropoff:       domain.Location{Label: "B"},
				DistanceMiles: 10,
				PromoCode:     "SAVE10",
			})
			if err != nil {
				if !errors.Is(err, service.ErrPromoAlreadyRedeemed) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			mu.Lock()
			if ride.PromoCode == "SAVE10" {
				discounted = append(discounted, ride)
			} else {
				undiscounted = append(undiscounted, ride)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(discounted) != 1 {
		t.Fatalf("expected exactly 1 discounted booking, got %d", len(discounted))
	}
	winner := discounted[0]

	promo, err := f.promoRepo.GetByCode(ctx, "SAVE10")
	if err != nil {
		t.Fatalf("failed to load promo: %v", err)
	}
	if promo.RedeemedByRide != winner.ID {
		t.Errorf("code redeemed by ride %q, want %q", promo.RedeemedByRide, winner.ID)
	}

	// Identical route for every booking, so the winner must be the only
	// ride priced below the rest.
	for _, ride := range undiscounted {
		if winner.Price >= ride.Price {
			t.Errorf("discounted price %s not below full price %s", winner.Price, ride.Price)
		}
	}
}
