package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DemandSnapshot is the raw supply/demand signal for a region over the
// trailing window.
type DemandSnapshot struct {
	OpenRequests     int
	AvailableDrivers int
}

// DemandStore tracks per-region demand signals in Redis. Requests and driver
// heartbeats are sorted-set members scored by unix time, so a trailing-window
// count is a ZCOUNT after trimming expired members.
type DemandStore struct {
	client *redis.Client
}

// NewDemandStore creates a new DemandStore.
func NewDemandStore(client *redis.Client) *DemandStore {
	return &DemandStore{client: client}
}

func requestsKey(region string) string {
	return fmt.Sprintf("demand:requests:%s", region)
}

func driversKey(region string) string {
	return fmt.Sprintf("demand:drivers:%s", region)
}

// RecordRequest registers an open ride request in the region's window.
func (s *DemandStore) RecordRequest(ctx context.Context, region, rideID string, at time.Time) error {
	return s.client.ZAdd(ctx, requestsKey(region), redis.Z{
		Score:  float64(at.Unix()),
		Member: rideID,
	}).Err()
}

// MarkDriverAvailable records a driver heartbeat in the region's window.
func (s *DemandStore) MarkDriverAvailable(ctx context.Context, region, driverID string, at time.Time) error {
	return s.client.ZAdd(ctx, driversKey(region), redis.Z{
		Score:  float64(at.Unix()),
		Member: driverID,
	}).Err()
}

// MarkDriverBusy removes a driver from the region's availability signal.
func (s *DemandStore) MarkDriverBusy(ctx context.Context, region, driverID string) error {
	return s.client.ZRem(ctx, driversKey(region), driverID).Err()
}

// Snapshot returns the open-request and available-driver counts for the
// region over the trailing window ending at now.
func (s *DemandStore) Snapshot(ctx context.Context, region string, window time.Duration, now time.Time) (DemandSnapshot, error) {
	floor := now.Add(-window).Unix()
	floorStr := strconv.FormatInt(floor, 10)

	// Trim expired members so the sets stay bounded under constant polling.
	pipe := s.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, requestsKey(region), "-inf", "("+floorStr)
	pipe.ZRemRangeByScore(ctx, driversKey(region), "-inf", "("+floorStr)
	requests := pipe.ZCount(ctx, requestsKey(region), floorStr, "+inf")
	drivers := pipe.ZCount(ctx, driversKey(region), floorStr, "+inf")

	if _, err := pipe.Exec(ctx); err != nil {
		return DemandSnapshot{}, err
	}

	return DemandSnapshot{
		OpenRequests:     int(requests.Val()),
		AvailableDrivers: int(drivers.Val()),
	}, nil
}
