package service

import (
	"context"
	"time"

	"rideq/internal/domain"
	rds "rideq/internal/redis"
	"rideq/internal/repository"
)

// TrackingService relays driver positions for active rides through Redis.
// Positions are ephemeral; the dashboard polls and a stale entry simply
// expires.
type TrackingService struct {
	locations rds.LocationStoreInterface
	rideRepo  repository.RideRepository
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(locations rds.LocationStoreInterface, rideRepo repository.RideRepository) *TrackingService {
	return &TrackingService{locations: locations, rideRepo: rideRepo}
}

// PublishPosition stores the assigned driver's current position for an active
// ride.
func (s *TrackingService) PublishPosition(ctx context.Context, rideID, driverID string, lat, lng, heading, speed float64) error {
	if rideID == "" {
		return ErrInvalidRideID
	}
	if driverID == "" {
		return ErrInvalidDriverID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return err
	}
	if ride.Status != domain.RideStatusActive {
		return ErrRideNotActive
	}
	if ride.DriverID != driverID {
		return ErrNotRideDriver
	}

	return s.locations.Publish(ctx, rideID, rds.DriverPosition{
		DriverID:  driverID,
		Lat:       lat,
		Lng:       lng,
		Heading:   heading,
		Speed:     speed,
		UpdatedAt: time.Now(),
	})
}

// GetPosition retrieves the last published position for a ride. Returns nil
// when no current position exists.
func (s *TrackingService) GetPosition(ctx context.Context, rideID string) (*rds.DriverPosition, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if _, err := s.rideRepo.GetByID(ctx, rideID); err != nil {
		return nil, err
	}
	return s.locations.Get(ctx, rideID)
}
