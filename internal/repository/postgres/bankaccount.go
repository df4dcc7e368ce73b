package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rideq/internal/domain"
	"rideq/internal/repository"
)

// BankAccountRepository is a PostgreSQL implementation of
// repository.BankAccountRepository.
type BankAccountRepository struct {
	q Querier
}

// NewBankAccountRepository creates a new PostgreSQL bank account repository.
func NewBankAccountRepository(db *sql.DB) *BankAccountRepository {
	return &BankAccountRepository{q: db}
}

const bankAccountColumns = `id, driver_id, holder_name, bank_name, account_number,
	routing_number, account_type, is_primary, created_at`

// Create persists a new bank account.
func (r *BankAccountRepository) Create(ctx context.Context, account *domain.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (` + bankAccountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		account.ID,
		account.DriverID,
		account.HolderName,
		account.BankName,
		account.AccountNumber,
		account.RoutingNumber,
		account.AccountType,
		account.IsPrimary,
		account.CreatedAt,
	)
	return err
}

// GetByID retrieves a bank account by ID.
func (r *BankAccountRepository) GetByID(ctx context.Context, id string) (*domain.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE id = $1`

	var account domain.BankAccount
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.DriverID,
		&account.HolderName,
		&account.BankName,
		&account.AccountNumber,
		&account.RoutingNumber,
		&account.AccountType,
		&account.IsPrimary,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// ListByDriver retrieves a driver's bank accounts, primary first.
func (r *BankAccountRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.BankAccount, error) {
	query := `
		SELECT ` + bankAccountColumns + ` FROM bank_accounts
		WHERE driver_id = $1
		ORDER BY is_primary DESC, created_at
	`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.BankAccount
	for rows.Next() {
		var account domain.BankAccount
		err := rows.Scan(
			&account.ID,
			&account.DriverID,
			&account.HolderName,
			&account.BankName,
			&account.AccountNumber,
			&account.RoutingNumber,
			&account.AccountType,
			&account.IsPrimary,
			&account.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, &account)
	}
	return accounts, rows.Err()
}
