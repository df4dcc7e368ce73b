package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rideq/internal/domain"
	"rideq/internal/repository"
)

// PromoRepository is a PostgreSQL implementation of repository.PromoRepository.
type PromoRepository struct {
	q Querier
}

// NewPromoRepository creates a new PostgreSQL promo repository.
func NewPromoRepository(db *sql.DB) *PromoRepository {
	return &PromoRepository{q: db}
}

// Create persists a new promo code.
func (r *PromoRepository) Create(ctx context.Context, promo *domain.PromoCode) error {
	query := `
		INSERT INTO promo_codes (code, discount, single_use, redeemed_by_ride, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		promo.Code,
		promo.Discount,
		promo.SingleUse,
		nullString(promo.RedeemedByRide),
		nullTime(promo.ExpiresAt),
		promo.CreatedAt,
	)
	return err
}

// GetByCode retrieves a promo code.
func (r *PromoRepository) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	query := `
		SELECT code, discount, single_use, redeemed_by_ride, expires_at, created_at
		FROM promo_codes WHERE code = $1
	`

	var (
		promo          domain.PromoCode
		redeemedByRide sql.NullString
		expiresAt      sql.NullTime
	)
	err := r.q.QueryRowContext(ctx, query, code).Scan(
		&promo.Code,
		&promo.Discount,
		&promo.SingleUse,
		&redeemedByRide,
		&expiresAt,
		&promo.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	promo.RedeemedByRide = redeemedByRide.String
	if expiresAt.Valid {
		promo.ExpiresAt = expiresAt.Time
	}
	return &promo, nil
}

// Redeem consumes a single-use code for a ride. The compare-and-set on
// redeemed_by_ride IS NULL guarantees exactly one winner. Multi-use codes
// are a no-op here.
func (r *PromoRepository) Redeem(ctx context.Context, code, rideID string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE promo_codes SET redeemed_by_ride = $1
		WHERE code = $2 AND single_use AND redeemed_by_ride IS NULL
	`, rideID, code)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var singleUse bool
	err = r.q.QueryRowContext(ctx,
		`SELECT single_use FROM promo_codes WHERE code = $1`, code).Scan(&singleUse)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !singleUse {
		return nil
	}
	return repository.ErrConflict
}
