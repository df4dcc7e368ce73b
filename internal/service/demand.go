package service

import (
	"context"
	"time"

	"rideq/internal/config"
	"rideq/internal/domain"
	"rideq/internal/redis"
)

// DefaultRegion is the demand-signal key used when a booking carries no
// region label.
const DefaultRegion = "default"

// DemandService derives a demand level and surge multiplier from the ratio
// of open ride requests to available drivers in a region. The multiplier is
// a pure function of the current snapshot; quotes are advisory and only a
// confirmed booking freezes the value.
type DemandService struct {
	store redis.DemandStoreInterface
	cfg   config.SurgeConfig
}

// NewDemandService creates a new DemandService.
func NewDemandService(store redis.DemandStoreInterface, cfg config.SurgeConfig) *DemandService {
	return &DemandService{store: store, cfg: cfg}
}

// DemandResult is the current demand classification for a region.
type DemandResult struct {
	Level      domain.DemandLevel
	Multiplier float64
}

// Current returns the region's demand level and multiplier at now. Store
// errors fail open to Low/1.0: a broken signal must not inflate prices.
func (s *DemandService) Current(ctx context.Context, region string, now time.Time) DemandResult {
	if region == "" {
		region = DefaultRegion
	}

	snap, err := s.store.Snapshot(ctx, region, s.cfg.Window, now)
	if err != nil {
		return DemandResult{Level: domain.DemandLow, Multiplier: 1.0}
	}

	return s.classify(snap)
}

// classify maps a supply/demand snapshot to a level and multiplier.
// Zero drivers with open demand is infinite ratio, so High at the cap.
func (s *DemandService) classify(snap redis.DemandSnapshot) DemandResult {
	if snap.AvailableDrivers == 0 {
		if snap.OpenRequests == 0 {
			return DemandResult{Level: domain.DemandLow, Multiplier: 1.0}
		}
		return DemandResult{Level: domain.DemandHigh, Multiplier: s.cfg.MaxMultiplier}
	}

	ratio := float64(snap.OpenRequests) / float64(snap.AvailableDrivers)

	switch {
	case ratio > 2:
		m := s.cfg.ModerateMax + s.cfg.HighSlope*(ratio-2)
		if m > s.cfg.MaxMultiplier {
			m = s.cfg.MaxMultiplier
		}
		return DemandResult{Level: domain.DemandHigh, Multiplier: m}
	case ratio >= 1:
		// Linear within the moderate band as the ratio moves 1 -> 2.
		m := s.cfg.ModerateMin + (s.cfg.ModerateMax-s.cfg.ModerateMin)*(ratio-1)
		return DemandResult{Level: domain.DemandModerate, Multiplier: m}
	default:
		return DemandResult{Level: domain.DemandLow, Multiplier: 1.0}
	}
}

// RecordRequest registers an open booking in the region's demand window.
func (s *DemandService) RecordRequest(ctx context.Context, region, rideID string, at time.Time) {
	if region == "" {
		region = DefaultRegion
	}
	// Best effort: a missed signal skews surge slightly, never correctness.
	_ = s.store.RecordRequest(ctx, region, rideID, at)
}

// MarkDriverAvailable records a driver heartbeat for the region.
func (s *DemandService) MarkDriverAvailable(ctx context.Context, region, driverID string, at time.Time) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if region == "" {
		region = DefaultRegion
	}
	return s.store.MarkDriverAvailable(ctx, region, driverID, at)
}

// MarkDriverBusy removes a driver from the region's availability signal.
func (s *DemandService) MarkDriverBusy(ctx context.Context, region, driverID string) {
	if region == "" {
		region = DefaultRegion
	}
	_ = s.store.MarkDriverBusy(ctx, region, driverID)
}
