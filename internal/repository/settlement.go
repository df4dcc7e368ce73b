package repository

import (
	"context"
	"time"

	"rideq/internal/domain"
	"rideq/internal/money"
)

// SettlementRepository owns driver balances and the credit ledger. It is the
// only writer of balance fields.
type SettlementRepository interface {
	// GetBalance retrieves a driver's balance. Drivers with no history get
	// a zero balance, not ErrNotFound.
	GetBalance(ctx context.Context, driverID string) (*domain.DriverBalance, error)

	// Credit applies a ride-completion credit. The ledger entry is keyed by
	// ride ID; replaying the same ride returns applied=false and changes
	// nothing.
	Credit(ctx context.Context, entry *domain.LedgerEntry) (applied bool, err error)

	// Reserve earmarks amount against the available balance. It is the
	// serialization point for concurrent withdrawals: the debit only happens
	// when available >= amount, otherwise ErrConflict.
	Reserve(ctx context.Context, driverID string, amount money.Cents) error

	// Release returns a previously reserved amount to the available balance.
	Release(ctx context.Context, driverID string, amount money.Cents) error

	// CommitWithdrawal finalizes a reserved amount as withdrawn.
	CommitWithdrawal(ctx context.Context, driverID string, amount money.Cents) error

	// CountCredits returns how many rides have credited the driver.
	CountCredits(ctx context.Context, driverID string) (int, error)

	// ListOutOfBalance returns balances whose reserved amount does not
	// equal the sum of the driver's open withdrawals. A mismatch means a
	// withdrawal reached a terminal status without its balance movement;
	// reconciliation is manual.
	ListOutOfBalance(ctx context.Context) ([]*domain.DriverBalance, error)
}

// WithdrawalRepository defines persistence for withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *domain.Withdrawal) error

	GetByID(ctx context.Context, id string) (*domain.Withdrawal, error)

	// ListByDriver retrieves a driver's withdrawals, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Withdrawal, error)

	// ListByStatus retrieves withdrawals in a given state, oldest first.
	ListByStatus(ctx context.Context, status domain.WithdrawalStatus) ([]*domain.Withdrawal, error)

	// ListProcessingSince retrieves processing withdrawals requested before
	// the cutoff, for manual reconciliation.
	ListProcessingSince(ctx context.Context, cutoff time.Time) ([]*domain.Withdrawal, error)

	// Transition moves a withdrawal from one status to another, compare-and-
	// set. Returns ErrConflict when the withdrawal is not in the from state.
	Transition(ctx context.Context, id string, from, to domain.WithdrawalStatus, reason string, at time.Time) error
}

// BankAccountRepository defines persistence for driver payout destinations.
type BankAccountRepository interface {
	Create(ctx context.Context, account *domain.BankAccount) error

	GetByID(ctx context.Context, id string) (*domain.BankAccount, error)

	// ListByDriver retrieves a driver's bank accounts, primary first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.BankAccount, error)
}
