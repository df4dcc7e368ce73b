package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"rideq/internal/config"
	"rideq/internal/domain"
	"rideq/internal/redis"
)

func testSurgeConfig() config.SurgeConfig {
	return config.SurgeConfig{
		Window:        10 * time.Minute,
		ModerateMin:   1.1,
		ModerateMax:   1.3,
		HighSlope:     0.35,
		MaxMultiplier: 2.0,
	}
}

// stubDemandStore returns a fixed snapshot or error.
type stubDemandStore struct {
	snap redis.DemandSnapshot
	err  error
}

func (s *stubDemandStore) RecordRequest(ctx context.Context, region, rideID string, at time.Time) error {
	return nil
}

func (s *stubDemandStore) MarkDriverAvailable(ctx context.Context, region, driverID string, at time.Time) error {
	return nil
}

func (s *stubDemandStore) MarkDriverBusy(ctx context.Context, region, driverID string) error {
	return nil
}

func (s *stubDemandStore) Snapshot(ctx context.Context, region string, window time.Duration, now time.Time) (redis.DemandSnapshot, error) {
	return s.snap, s.err
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDemandClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requests       int
		drivers        int
		wantLevel      domain.DemandLevel
		wantMultiplier float64
	}{
		{"no activity", 0, 0, domain.DemandLow, 1.0},
		{"surplus drivers", 2, 10, domain.DemandLow, 1.0},
		{"balanced", 5, 5, domain.DemandModerate, 1.1},
		{"ratio 1.5", 3, 2, domain.DemandModerate, 1.2},
		{"ratio 2.0", 10, 5, domain.DemandModerate, 1.3},
		{"ratio 3.0", 9, 3, domain.DemandHigh, 1.65},
		{"ratio 4.0 at cap", 20, 5, domain.DemandHigh, 2.0},
		{"extreme ratio capped", 100, 1, domain.DemandHigh, 2.0},
		{"demand with zero drivers", 4, 0, domain.DemandHigh, 2.0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewDemandService(&stubDemandStore{
				snap: redis.DemandSnapshot{OpenRequests: tt.requests, AvailableDrivers: tt.drivers},
			}, testSurgeConfig())

			got := svc.Current(context.Background(), "default", time.Now())
			if got.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", got.Level, tt.wantLevel)
			}
			if !almostEqual(got.Multiplier, tt.wantMultiplier) {
				t.Errorf("multiplier = %v, want %v", got.Multiplier, tt.wantMultiplier)
			}
		})
	}
}

func TestDemand_StoreErrorFailsOpen(t *testing.T) {
	t.Parallel()

	svc := NewDemandService(&stubDemandStore{err: errors.New("redis down")}, testSurgeConfig())

	got := svc.Current(context.Background(), "default", time.Now())
	if got.Level != domain.DemandLow || got.Multiplier != 1.0 {
		t.Errorf("broken signal must not inflate prices: got %s/%v", got.Level, got.Multiplier)
	}
}

func TestDemand_EmptyRegionUsesDefault(t *testing.T) {
	t.Parallel()

	svc := NewDemandService(&stubDemandStore{
		snap: redis.DemandSnapshot{OpenRequests: 10, AvailableDrivers: 2},
	}, testSurgeConfig())

	got := svc.Current(context.Background(), "", time.Now())
	if got.Level != domain.DemandHigh {
		t.Errorf("expected High, got %s", got.Level)
	}
}
