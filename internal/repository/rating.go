package repository

import (
	"context"

	"rideq/internal/domain"
)

// RatingRepository defines persistence for post-ride ratings.
type RatingRepository interface {
	// Create stores a rating. A second rating for the same ride from the
	// same side returns ErrConflict.
	Create(ctx context.Context, rating *domain.Rating) error

	ListByRide(ctx context.Context, rideID string) ([]*domain.Rating, error)

	// AverageForDriver returns the driver's mean stars and rating count.
	AverageForDriver(ctx context.Context, driverID string) (avg float64, count int, err error)
}
