package repository

import (
	"context"
	"time"

	"rideq/internal/domain"
)

// RideRepository defines the persistence operations for rides. All state
// transitions are compare-and-set: they succeed only when the ride is
// currently in an allowed source state, and return ErrConflict otherwise.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// ListByCustomer retrieves a customer's rides, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Ride, error)

	// ListByDriver retrieves a driver's rides, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error)

	// ListOpen retrieves rides open for acceptance (pending or scheduled),
	// scheduled rides ordered by their scheduled time.
	ListOpen(ctx context.Context) ([]*domain.Ride, error)

	// ListScheduledBefore retrieves scheduled rides whose scheduled time is
	// before the cutoff and that nobody has accepted.
	ListScheduledBefore(ctx context.Context, cutoff time.Time) ([]*domain.Ride, error)

	// Claim transitions an open ride to active and sets the driver, exactly
	// once. A ride that is not open returns ErrConflict.
	Claim(ctx context.Context, rideID, driverID string) error

	// Complete transitions an active ride with a driver to completed.
	Complete(ctx context.Context, rideID string, at time.Time) error

	// Cancel transitions an open ride to cancelled with a reason.
	Cancel(ctx context.Context, rideID, reason string) error

	// SetPaymentStatus records the charge-capture outcome.
	SetPaymentStatus(ctx context.Context, rideID string, status domain.PaymentStatus) error
}
