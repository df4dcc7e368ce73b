package domain

import (
	"time"

	"rideq/internal/money"
)

// DriverBalance tracks a driver's earnings accounting. The invariant
// AvailableBalance == TotalEarnings - TotalWithdrawn - (pending/processing
// withdrawal amounts) holds at all times and the balance is never negative.
type DriverBalance struct {
	DriverID         string
	TotalEarnings    money.Cents
	TotalWithdrawn   money.Cents
	AvailableBalance money.Cents
	UpdatedAt        time.Time
}

// Reserved returns the amount currently earmarked by open withdrawals.
func (b *DriverBalance) Reserved() money.Cents {
	return b.TotalEarnings - b.TotalWithdrawn - b.AvailableBalance
}

// LedgerEntry records one ride-completion credit. RideID is unique, which is
// what makes the credit idempotent under event redelivery.
type LedgerEntry struct {
	ID        string
	DriverID  string
	RideID    string
	Amount    money.Cents
	CreatedAt time.Time
}

// WithdrawalStatus represents the payout state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
	WithdrawalStatusCancelled  WithdrawalStatus = "cancelled"
)

// Terminal reports whether the status is final and immutable.
func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusFailed || s == WithdrawalStatusCancelled
}

// Withdrawal is a request to move earned funds to a bank account. A pending
// or processing withdrawal is a live reservation against AvailableBalance.
type Withdrawal struct {
	ID            string
	DriverID      string
	BankAccountID string
	Amount        money.Cents
	Status        WithdrawalStatus
	FailureReason string
	RequestedAt   time.Time
	ResolvedAt    time.Time
}

// AccountType distinguishes checking from savings bank accounts.
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

// BankAccount is a driver payout destination. Account and routing numbers
// are stored masked; the payout rail holds the real credentials.
type BankAccount struct {
	ID            string
	DriverID      string
	HolderName    string
	BankName      string
	AccountNumber string // masked, last four only
	RoutingNumber string // masked
	AccountType   AccountType
	IsPrimary     bool
	CreatedAt     time.Time
}

// MaskAccountNumber keeps only the last four digits of an account number.
func MaskAccountNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return "****" + number[len(number)-4:]
}
