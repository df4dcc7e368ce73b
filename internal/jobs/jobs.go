package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"rideq/internal/config"
	"rideq/internal/redis"
	"rideq/internal/service"
)

// Runner drives the background workers: the withdrawal processor and the
// scheduled-ride expiry sweep. Each tick takes a distributed lock so multiple
// API instances do not run the same sweep concurrently.
type Runner struct {
	withdrawals *service.WithdrawalService
	rides       *service.RideService
	locks       redis.LockStoreInterface
	cfg         config.JobsConfig

	wg sync.WaitGroup
}

// NewRunner creates a new Runner.
func NewRunner(
	withdrawals *service.WithdrawalService,
	rides *service.RideService,
	locks redis.LockStoreInterface,
	cfg config.JobsConfig,
) *Runner {
	return &Runner{
		withdrawals: withdrawals,
		rides:       rides,
		locks:       locks,
		cfg:         cfg,
	}
}

// Start launches the worker loops. They run until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(2)
	go r.loop(ctx, "withdrawal-processor", r.cfg.WithdrawalInterval, r.processWithdrawals)
	go r.loop(ctx, "ride-expiry", r.cfg.ExpiryInterval, r.expireRides)
}

// Wait blocks until all worker loops have exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// loop runs fn every interval under the named lock. The lock TTL is tied to
// the interval so a crashed holder frees the sweep within one period.
func (r *Runner) loop(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			acquired, err := r.locks.Acquire(ctx, name, interval)
			if err != nil {
				log.Printf("job %s: acquire lock: %v", name, err)
				continue
			}
			if !acquired {
				continue // another instance holds the sweep
			}

			fn(ctx)

			if err := r.locks.Release(ctx, name); err != nil {
				log.Printf("job %s: release lock: %v", name, err)
			}
		}
	}
}

func (r *Runner) processWithdrawals(ctx context.Context) {
	processed, err := r.withdrawals.ProcessPending(ctx)
	if err != nil {
		log.Printf("withdrawal processor: %v", err)
		return
	}
	if processed > 0 {
		log.Printf("withdrawal processor: resolved %d withdrawal(s)", processed)
	}
}

func (r *Runner) expireRides(ctx context.Context) {
	expired, err := r.rides.ExpireScheduled(ctx, r.cfg.ExpiryGrace)
	if err != nil {
		log.Printf("ride expiry: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("ride expiry: cancelled %d stale scheduled ride(s)", expired)
	}
}
