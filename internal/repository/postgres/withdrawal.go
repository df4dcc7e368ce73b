package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rideq/internal/domain"
	"rideq/internal/money"
	"rideq/internal/repository"
)

// WithdrawalRepository is a PostgreSQL implementation of
// repository.WithdrawalRepository.
type WithdrawalRepository struct {
	q Querier
}

// NewWithdrawalRepository creates a new PostgreSQL withdrawal repository.
func NewWithdrawalRepository(db *sql.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db}
}

const withdrawalColumns = `id, driver_id, bank_account_id, amount_cents, status,
	failure_reason, requested_at, resolved_at`

// Create persists a new withdrawal request.
func (r *WithdrawalRepository) Create(ctx context.Context, w *domain.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (` + withdrawalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		w.ID,
		w.DriverID,
		w.BankAccountID,
		int64(w.Amount),
		w.Status,
		nullString(w.FailureReason),
		w.RequestedAt,
		nullTime(w.ResolvedAt),
	)
	return err
}

// GetByID retrieves a withdrawal by ID.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1`

	w, err := scanWithdrawal(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

// ListByDriver retrieves a driver's withdrawals, newest first.
func (r *WithdrawalRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE driver_id = $1 ORDER BY requested_at DESC`
	return r.list(ctx, query, driverID)
}

// ListByStatus retrieves withdrawals in a given state, oldest first.
func (r *WithdrawalRepository) ListByStatus(ctx context.Context, status domain.WithdrawalStatus) ([]*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE status = $1 ORDER BY requested_at`
	return r.list(ctx, query, status)
}

// ListProcessingSince retrieves processing withdrawals requested before the
// cutoff, for manual reconciliation.
func (r *WithdrawalRepository) ListProcessingSince(ctx context.Context, cutoff time.Time) ([]*domain.Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + ` FROM withdrawals
		WHERE status = $1 AND requested_at < $2
		ORDER BY requested_at
	`
	return r.list(ctx, query, domain.WithdrawalStatusProcessing, cutoff)
}

// Transition moves a withdrawal between states, compare-and-set on the
// current status. Terminal states also record the resolution time.
func (r *WithdrawalRepository) Transition(ctx context.Context, id string, from, to domain.WithdrawalStatus, reason string, at time.Time) error {
	var resolvedAt sql.NullTime
	if to.Terminal() {
		resolvedAt = sql.NullTime{Time: at, Valid: true}
	}

	res, err := r.q.ExecContext(ctx, `
		UPDATE withdrawals
		SET status = $1, failure_reason = $2, resolved_at = $3
		WHERE id = $4 AND status = $5
	`, to, nullString(reason), resolvedAt, id, from)
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

	var exists bool
	if err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM withdrawals WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *WithdrawalRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Withdrawal, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []*domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}

func scanWithdrawal(row rowScanner) (*domain.Withdrawal, error) {
	var (
		w             domain.Withdrawal
		amountCents   int64
		failureReason sql.NullString
		resolvedAt    sql.NullTime
	)

	err := row.Scan(
		&w.ID,
		&w.DriverID,
		&w.BankAccountID,
		&amountCents,
		&w.Status,
		&failureReason,
		&w.RequestedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	w.Amount = money.Cents(amountCents)
	w.FailureReason = failureReason.String
	if resolvedAt.Valid {
		w.ResolvedAt = resolvedAt.Time
	}
	return &w, nil
}
