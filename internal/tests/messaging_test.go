package tests

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rideq/internal/domain"
	"rideq/internal/service"
)

func seedRide(repo *MockRideRepository, id string, status domain.RideStatus, driverID string) *domain.Ride {
	ride := &domain.Ride{
		ID:         id,
		CustomerID: "customer-1",
		DriverID:   driverID,
		Status:     status,
		CreatedAt:  time.Now(),
	}
	repo.AddRide(ride)
	return ride
}

func TestMessaging_AppendAndListSince(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	messageRepo := NewMockMessageRepository()
	svc := service.NewMessageService(messageRepo, rideRepo)
	seedRide(rideRepo, "ride-1", domain.RideStatusActive, "driver-1")

	ctx := context.Background()
	first, err := svc.Send(ctx, "ride-1", "customer-1", domain.SenderCustomer, "where are you?")
	if err != nil {
		t.Fatalf("failed to send message: %v", err)
	}
	if _, err := svc.Send(ctx, "ride-1", "driver-1", domain.SenderDriver, "two minutes out"); err != nil {
		t.Fatalf("failed to send message: %v", err)
	}

	all, err := svc.ListSince(ctx, "ride-1", time.Time{})
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(all))
	}
	if all[0].Text != "where are you?" || all[1].Text != "two minutes out" {
		t.Errorf("messages out of order: %q, %q", all[0].Text, all[1].Text)
	}

	// Polling from after the first message only returns the second.
	since, err := svc.ListSince(ctx, "ride-1", first.CreatedAt.Add(time.Nanosecond))
	if err != nil {
		t.Fatalf("failed to list since: %v", err)
	}
	if len(since) != 1 || since[0].SenderType != domain.SenderDriver {
		t.Fatalf("expected only the driver message, got %v", since)
	}
}

func TestMessaging_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	svc := service.NewMessageService(NewMockMessageRepository(), rideRepo)
	seedRide(rideRepo, "ride-1", domain.RideStatusActive, "driver-1")

	ctx := context.Background()

	if _, err := svc.Send(ctx, "ride-1", "c", domain.SenderCustomer, "   "); !errors.Is(err, service.ErrInvalidMessageText) {
		t.Errorf("blank text: expected ErrInvalidMessageText, got %v", err)
	}
	if _, err := svc.Send(ctx, "ride-1", "c", domain.SenderCustomer, strings.Repeat("x", 1001)); !errors.Is(err, service.ErrInvalidMessageText) {
		t.Errorf("oversized text: expected ErrInvalidMessageText, got %v", err)
	}
	if _, err := svc.Send(ctx, "ride-1", "c", "dispatcher", "hi"); !errors.Is(err, service.ErrInvalidSenderType) {
		t.Errorf("bad sender: expected ErrInvalidSenderType, got %v", err)
	}
	if _, err := svc.Send(ctx, "ride-missing", "c", domain.SenderCustomer, "hi"); err == nil {
		t.Error("expected error for unknown ride")
	}
}

func TestTracking_PublishRequiresActiveRideAndAssignedDriver(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	locations := NewMockLocationStore()
	svc := service.NewTrackingService(locations, rideRepo)

	seedRide(rideRepo, "ride-active", domain.RideStatusActive, "driver-1")
	seedRide(rideRepo, "ride-open", domain.RideStatusPending, "")

	ctx := context.Background()

	if err := svc.PublishPosition(ctx, "ride-active", "driver-1", 40.7, -74.0, 90, 25); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	pos, err := svc.GetPosition(ctx, "ride-active")
	if err != nil {
		t.Fatalf("get position failed: %v", err)
	}
	if pos == nil || pos.DriverID != "driver-1" {
		t.Fatalf("expected driver-1 position, got %v", pos)
	}

	if err := svc.PublishPosition(ctx, "ride-open", "driver-1", 40.7, -74.0, 0, 0); !errors.Is(err, service.ErrRideNotActive) {
		t.Errorf("open ride: expected ErrRideNotActive, got %v", err)
	}
	if err := svc.PublishPosition(ctx, "ride-active", "driver-2", 40.7, -74.0, 0, 0); !errors.Is(err, service.ErrNotRideDriver) {
		t.Errorf("wrong driver: expected ErrNotRideDriver, got %v", err)
	}
}

func TestRating_OnePerSideOfCompletedRide(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	ratingRepo := NewMockRatingRepository()
	svc := service.NewRatingService(ratingRepo, rideRepo)

	completed := seedRide(rideRepo, "ride-done", domain.RideStatusCompleted, "driver-1")
	seedRide(rideRepo, "ride-live", domain.RideStatusActive, "driver-1")

	ctx := context.Background()

	rating, err := svc.Submit(ctx, completed.ID, domain.SenderCustomer, 5, "smooth ride")
	if err != nil {
		t.Fatalf("failed to submit rating: %v", err)
	}
	if rating.RatedID != "driver-1" {
		t.Errorf("customer rating should target the driver, got %s", rating.RatedID)
	}

	// Other side can still rate.
	driverSide, err := svc.Submit(ctx, completed.ID, domain.SenderDriver, 4, "")
	if err != nil {
		t.Fatalf("driver rating failed: %v", err)
	}
	if driverSide.RatedID != "customer-1" {
		t.Errorf("driver rating should target the customer, got %s", driverSide.RatedID)
	}

	// Same side twice is a conflict.
	if _, err := svc.Submit(ctx, completed.ID, domain.SenderCustomer, 3, ""); !errors.Is(err, service.ErrAlreadyRated) {
		t.Errorf("expected ErrAlreadyRated, got %v", err)
	}

	// Incomplete rides cannot be rated.
	if _, err := svc.Submit(ctx, "ride-live", domain.SenderCustomer, 5, ""); !errors.Is(err, service.ErrRideNotCompleted) {
		t.Errorf("expected ErrRideNotCompleted, got %v", err)
	}

	// Stars bounds.
	if _, err := svc.Submit(ctx, completed.ID, domain.SenderDriver, 0, ""); !errors.Is(err, service.ErrInvalidStars) {
		t.Errorf("expected ErrInvalidStars for 0, got %v", err)
	}
	if _, err := svc.Submit(ctx, completed.ID, domain.SenderDriver, 6, ""); !errors.Is(err, service.ErrInvalidStars) {
		t.Errorf("expected ErrInvalidStars for 6, got %v", err)
	}
}
