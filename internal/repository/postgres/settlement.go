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

// SettlementRepository is a PostgreSQL implementation of
// repository.SettlementRepository. It holds the *sql.DB directly because
// Credit spans two statements that must commit together.
type SettlementRepository struct {
	db *sql.DB
}

// NewSettlementRepository creates a new PostgreSQL settlement repository.
func NewSettlementRepository(db *sql.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// GetBalance retrieves a driver's balance, zero when the driver has no
// settlement history yet.
func (r *SettlementRepository) GetBalance(ctx context.Context, driverID string) (*domain.DriverBalance, error) {
	query := `
		SELECT driver_id, total_earnings_cents, total_withdrawn_cents, available_cents, updated_at
		FROM driver_balances WHERE driver_id = $1
	`

	var (
		balance   domain.DriverBalance
		earnings  int64
		withdrawn int64
		available int64
	)
	err := r.db.QueryRowContext(ctx, query, driverID).Scan(
		&balance.DriverID, &earnings, &withdrawn, &available, &balance.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.DriverBalance{DriverID: driverID}, nil
	}
	if err != nil {
		return nil, err
	}

	balance.TotalEarnings = money.Cents(earnings)
	balance.TotalWithdrawn = money.Cents(withdrawn)
	balance.AvailableBalance = money.Cents(available)
	return &balance, nil
}

// Credit applies a ride-completion credit exactly once per ride. The ledger
// insert and the balance update commit in one transaction; the unique ride_id
// column absorbs event redelivery.
func (r *SettlementRepository) Credit(ctx context.Context, entry *domain.LedgerEntry) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO settlement_ledger (id, driver_id, ride_id, amount_cents, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ride_id) DO NOTHING
	`, entry.ID, entry.DriverID, entry.RideID, int64(entry.Amount), entry.CreatedAt)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Already credited for this ride.
		return false, tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO driver_balances (driver_id, total_earnings_cents, total_withdrawn_cents, available_cents, updated_at)
		VALUES ($1, $2, 0, $2, $3)
		ON CONFLICT (driver_id) DO UPDATE SET
			total_earnings_cents = driver_balances.total_earnings_cents + EXCLUDED.total_earnings_cents,
			available_cents = driver_balances.available_cents + EXCLUDED.total_earnings_cents,
			updated_at = EXCLUDED.updated_at
	`, entry.DriverID, int64(entry.Amount), entry.CreatedAt)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// Reserve earmarks amount against the available balance. The WHERE clause is
// the serialization point: concurrent reserves cannot jointly exceed the
// available balance.
func (r *SettlementRepository) Reserve(ctx context.Context, driverID string, amount money.Cents) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE driver_balances
		SET available_cents = available_cents - $1, updated_at = $2
		WHERE driver_id = $3 AND available_cents >= $1
	`, int64(amount), time.Now(), driverID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrConflict
	}
	return nil
}

// Release returns a reserved amount to the available balance.
func (r *SettlementRepository) Release(ctx context.Context, driverID string, amount money.Cents) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE driver_balances
		SET available_cents = available_cents + $1, updated_at = $2
		WHERE driver_id = $3
	`, int64(amount), time.Now(), driverID)
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

// CommitWithdrawal finalizes a reserved amount as withdrawn. Available was
// already debited at reserve time, so only the withdrawn total moves.
func (r *SettlementRepository) CommitWithdrawal(ctx context.Context, driverID string, amount money.Cents) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE driver_balances
		SET total_withdrawn_cents = total_withdrawn_cents + $1, updated_at = $2
		WHERE driver_id = $3
	`, int64(amount), time.Now(), driverID)
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

// ListOutOfBalance finds drivers whose reserved funds disagree with their
// open withdrawals. A crash between a withdrawal transition and its balance
// movement leaves exactly such a row; this query is the net under that gap.
func (r *SettlementRepository) ListOutOfBalance(ctx context.Context) ([]*domain.DriverBalance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.driver_id, b.total_earnings_cents, b.total_withdrawn_cents, b.available_cents, b.updated_at
		FROM driver_balances b
		LEFT JOIN (
			SELECT driver_id, SUM(amount_cents) AS open_cents
			FROM withdrawals
			WHERE status IN ('pending', 'processing')
			GROUP BY driver_id
		) w ON w.driver_id = b.driver_id
		WHERE b.total_earnings_cents - b.total_withdrawn_cents - b.available_cents <> COALESCE(w.open_cents, 0)
		ORDER BY b.driver_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []*domain.DriverBalance
	for rows.Next() {
		var (
			balance   domain.DriverBalance
			earnings  int64
			withdrawn int64
			available int64
		)
		if err := rows.Scan(&balance.DriverID, &earnings, &withdrawn, &available, &balance.UpdatedAt); err != nil {
			return nil, err
		}
		balance.TotalEarnings = money.Cents(earnings)
		balance.TotalWithdrawn = money.Cents(withdrawn)
		balance.AvailableBalance = money.Cents(available)
		balances = append(balances, &balance)
	}
	return balances, rows.Err()
}

// CountCredits returns how many rides have credited the driver.
func (r *SettlementRepository) CountCredits(ctx context.Context, driverID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM settlement_ledger WHERE driver_id = $1`, driverID).Scan(&count)
	return count, err
}
