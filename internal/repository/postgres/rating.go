package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"rideq/internal/domain"
	"rideq/internal/repository"
)

// RatingRepository is a PostgreSQL implementation of
// repository.RatingRepository.
type RatingRepository struct {
	q Querier
}

// NewRatingRepository creates a new PostgreSQL rating repository.
func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{q: db}
}

// Create stores a rating. The (ride_id, rated_by) unique constraint rejects
// a second rating from the same side.
func (r *RatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO ratings (id, ride_id, rated_id, rated_by, stars, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		rating.ID,
		rating.RideID,
		rating.RatedID,
		rating.RatedBy,
		rating.Stars,
		rating.Comment,
		rating.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

// ListByRide retrieves the ratings submitted for a ride.
func (r *RatingRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Rating, error) {
	query := `
		SELECT id, ride_id, rated_id, rated_by, stars, comment, created_at
		FROM ratings WHERE ride_id = $1 ORDER BY created_at
	`

	rows, err := r.q.QueryContext(ctx, query, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []*domain.Rating
	for rows.Next() {
		var rating domain.Rating
		err := rows.Scan(
			&rating.ID,
			&rating.RideID,
			&rating.RatedID,
			&rating.RatedBy,
			&rating.Stars,
			&rating.Comment,
			&rating.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, &rating)
	}
	return ratings, rows.Err()
}

// AverageForDriver returns the driver's mean stars and rating count.
func (r *RatingRepository) AverageForDriver(ctx context.Context, driverID string) (float64, int, error) {
	var (
		avg   sql.NullFloat64
		count int
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT AVG(stars), COUNT(*) FROM ratings
		WHERE rated_id = $1 AND rated_by = $2
	`, driverID, domain.SenderCustomer).Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}
	return avg.Float64, count, nil
}
