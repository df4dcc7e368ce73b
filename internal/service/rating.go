package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"rideq/internal/domain"
	"rideq/internal/repository"
)

// RatingService accepts post-ride feedback. Only completed rides can be
// rated, and each side rates a ride at most once.
type RatingService struct {
	ratingRepo repository.RatingRepository
	rideRepo   repository.RideRepository
}

// NewRatingService creates a new RatingService.
func NewRatingService(ratingRepo repository.RatingRepository, rideRepo repository.RideRepository) *RatingService {
	return &RatingService{ratingRepo: ratingRepo, rideRepo: rideRepo}
}

// Submit records a rating for a completed ride. The rated party is inferred
// from the rater's side: customers rate the driver, drivers rate the customer.
func (s *RatingService) Submit(ctx context.Context, rideID string, ratedBy domain.SenderType, stars int, comment string) (*domain.Rating, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if ratedBy != domain.SenderCustomer && ratedBy != domain.SenderDriver {
		return nil, ErrInvalidSenderType
	}
	if stars < 1 || stars > 5 {
		return nil, ErrInvalidStars
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusCompleted {
		return nil, ErrRideNotCompleted
	}

	ratedID := ride.DriverID
	if ratedBy == domain.SenderDriver {
		ratedID = ride.CustomerID
	}

	rating := &domain.Rating{
		ID:        uuid.New().String(),
		RideID:    rideID,
		RatedID:   ratedID,
		RatedBy:   ratedBy,
		Stars:     stars,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: time.Now(),
	}

	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyRated
		}
		return nil, err
	}
	return rating, nil
}

// ListForRide retrieves the ratings submitted for a ride.
func (s *RatingService) ListForRide(ctx context.Context, rideID string) ([]*domain.Rating, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	return s.ratingRepo.ListByRide(ctx, rideID)
}
