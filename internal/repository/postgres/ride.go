package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"rideq/internal/domain"
	"rideq/internal/money"
	"rideq/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

const rideColumns = `id, customer_id, driver_id, pickup_label, pickup_lat, pickup_lng,
	dropoff_label, dropoff_lat, dropoff_lng, distance_miles, region, status,
	payment_status, price_cents, surge_multiplier, is_holiday, promo_code,
	scheduled_time, cancel_reason, created_at, completed_at`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.CustomerID,
		nullString(ride.DriverID),
		ride.Pickup.Label,
		ride.Pickup.Lat,
		ride.Pickup.Lng,
		ride.Dropoff.Label,
		ride.Dropoff.Lat,
		ride.Dropoff.Lng,
		ride.DistanceMiles,
		ride.Region,
		ride.Status,
		ride.PaymentStatus,
		int64(ride.Price),
		ride.SurgeMultiplier,
		ride.IsHoliday,
		nullString(ride.PromoCode),
		nullTime(ride.ScheduledTime),
		nullString(ride.CancelReason),
		ride.CreatedAt,
		nullTime(ride.CompletedAt),
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// ListByCustomer retrieves a customer's rides, newest first.
func (r *RideRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE customer_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, customerID)
}

// ListByDriver retrieves a driver's rides, newest first.
func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE driver_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, driverID)
}

// ListOpen retrieves rides open for acceptance. On-demand rides come first,
// then scheduled rides by their scheduled time.
func (r *RideRepository) ListOpen(ctx context.Context) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE status = ANY($1)
		ORDER BY scheduled_time NULLS FIRST, created_at
	`
	return r.list(ctx, query, pq.Array(openStatusStrings()))
}

// ListScheduledBefore retrieves unaccepted scheduled rides past the cutoff.
func (r *RideRepository) ListScheduledBefore(ctx context.Context, cutoff time.Time) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE status = $1 AND scheduled_time < $2
		ORDER BY scheduled_time
	`
	return r.list(ctx, query, domain.RideStatusScheduled, cutoff)
}

// Claim transitions an open ride to active and sets the driver. The WHERE
// clause is the compare-and-set: a concurrent claimer finds zero rows.
func (r *RideRepository) Claim(ctx context.Context, rideID, driverID string) error {
	query := `
		UPDATE rides SET status = $1, driver_id = $2
		WHERE id = $3 AND status = ANY($4) AND driver_id IS NULL
	`

	res, err := r.q.ExecContext(ctx, query,
		domain.RideStatusActive, driverID, rideID, pq.Array(openStatusStrings()))
	if err != nil {
		return err
	}
	return r.casOutcome(ctx, res, rideID)
}

// Complete transitions an active ride with a driver to completed.
func (r *RideRepository) Complete(ctx context.Context, rideID string, at time.Time) error {
	query := `
		UPDATE rides SET status = $1, completed_at = $2
		WHERE id = $3 AND status = $4 AND driver_id IS NOT NULL
	`

	res, err := r.q.ExecContext(ctx, query,
		domain.RideStatusCompleted, at, rideID, domain.RideStatusActive)
	if err != nil {
		return err
	}
	return r.casOutcome(ctx, res, rideID)
}

// Cancel transitions an open ride to cancelled with a reason.
func (r *RideRepository) Cancel(ctx context.Context, rideID, reason string) error {
	query := `
		UPDATE rides SET status = $1, cancel_reason = $2
		WHERE id = $3 AND status = ANY($4)
	`

	res, err := r.q.ExecContext(ctx, query,
		domain.RideStatusCancelled, reason, rideID, pq.Array(openStatusStrings()))
	if err != nil {
		return err
	}
	return r.casOutcome(ctx, res, rideID)
}

// SetPaymentStatus records the charge-capture outcome.
func (r *RideRepository) SetPaymentStatus(ctx context.Context, rideID string, status domain.PaymentStatus) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE rides SET payment_status = $1 WHERE id = $2`, status, rideID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// casOutcome distinguishes a lost race from a missing ride after a
// conditional update affected zero rows.
func (r *RideRepository) casOutcome(ctx context.Context, res sql.Result, rideID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, rideID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *RideRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var (
		ride          domain.Ride
		driverID      sql.NullString
		promoCode     sql.NullString
		cancelReason  sql.NullString
		scheduledTime sql.NullTime
		completedAt   sql.NullTime
		priceCents    int64
	)

	err := row.Scan(
		&ride.ID,
		&ride.CustomerID,
		&driverID,
		&ride.Pickup.Label,
		&ride.Pickup.Lat,
		&ride.Pickup.Lng,
		&ride.Dropoff.Label,
		&ride.Dropoff.Lat,
		&ride.Dropoff.Lng,
		&ride.DistanceMiles,
		&ride.Region,
		&ride.Status,
		&ride.PaymentStatus,
		&priceCents,
		&ride.SurgeMultiplier,
		&ride.IsHoliday,
		&promoCode,
		&scheduledTime,
		&cancelReason,
		&ride.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	ride.Price = money.Cents(priceCents)
	ride.DriverID = driverID.String
	ride.PromoCode = promoCode.String
	ride.CancelReason = cancelReason.String
	if scheduledTime.Valid {
		ride.ScheduledTime = scheduledTime.Time
	}
	if completedAt.Valid {
		ride.CompletedAt = completedAt.Time
	}

	return &ride, nil
}

func openStatusStrings() []string {
	statuses := domain.OpenStatuses()
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
