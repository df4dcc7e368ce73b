package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// locationTTL bounds how long a published position stays current. Dashboards
// poll; a stale position past this is treated as no position.
const locationTTL = time.Minute

// DriverPosition is a driver's last published position for an active ride.
type DriverPosition struct {
	DriverID  string    `json:"driver_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Heading   float64   `json:"heading"`
	Speed     float64   `json:"speed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LocationStore handles per-ride driver position publishing in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

func locationKey(rideID string) string {
	return fmt.Sprintf("ride:location:%s", rideID)
}

// Publish stores the driver's current position for a ride.
func (s *LocationStore) Publish(ctx context.Context, rideID string, pos DriverPosition) error {
	data, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, locationKey(rideID), data, locationTTL).Err()
}

// Get retrieves the last published position for a ride. Returns nil when no
// current position exists.
func (s *LocationStore) Get(ctx context.Context, rideID string) (*DriverPosition, error) {
	data, err := s.client.Get(ctx, locationKey(rideID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var pos DriverPosition
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, err
	}
	return &pos, nil
}
