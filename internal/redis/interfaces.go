package redis

import (
	"context"
	"time"
)

// DemandStoreInterface defines the interface for demand signal tracking.
type DemandStoreInterface interface {
	RecordRequest(ctx context.Context, region, rideID string, at time.Time) error
	MarkDriverAvailable(ctx context.Context, region, driverID string, at time.Time) error
	MarkDriverBusy(ctx context.Context, region, driverID string) error
	Snapshot(ctx context.Context, region string, window time.Duration, now time.Time) (DemandSnapshot, error)
}

// LocationStoreInterface defines the interface for per-ride driver positions.
type LocationStoreInterface interface {
	Publish(ctx context.Context, rideID string, pos DriverPosition) error
	Get(ctx context.Context, rideID string) (*DriverPosition, error)
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

// Ensure concrete types implement interfaces.
var (
	_ DemandStoreInterface   = (*DemandStore)(nil)
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
