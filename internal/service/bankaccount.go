package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rideq/internal/domain"
	"rideq/internal/repository"
)

// BankAccountService manages driver payout destinations.
type BankAccountService struct {
	bankRepo repository.BankAccountRepository
}

// NewBankAccountService creates a new BankAccountService.
func NewBankAccountService(bankRepo repository.BankAccountRepository) *BankAccountService {
	return &BankAccountService{bankRepo: bankRepo}
}

// AddBankAccountRequest contains the parameters for adding a bank account.
type AddBankAccountRequest struct {
	DriverID      string
	HolderName    string
	BankName      string
	AccountNumber string
	RoutingNumber string
	AccountType   domain.AccountType
}

// ErrInvalidBankAccount is returned when required account fields are missing.
var ErrInvalidBankAccount = errors.New("invalid bank account details")

// Add stores a new bank account. Numbers are masked before persistence; the
// driver's first account becomes primary.
func (s *BankAccountService) Add(ctx context.Context, req AddBankAccountRequest) (*domain.BankAccount, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if req.HolderName == "" || req.BankName == "" || req.AccountNumber == "" || req.RoutingNumber == "" {
		return nil, ErrInvalidBankAccount
	}

	accountType := req.AccountType
	if accountType == "" {
		accountType = domain.AccountTypeChecking
	}
	if accountType != domain.AccountTypeChecking && accountType != domain.AccountTypeSavings {
		return nil, ErrInvalidBankAccount
	}

	existing, err := s.bankRepo.ListByDriver(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}

	account := &domain.BankAccount{
		ID:            uuid.New().String(),
		DriverID:      req.DriverID,
		HolderName:    req.HolderName,
		BankName:      req.BankName,
		AccountNumber: domain.MaskAccountNumber(req.AccountNumber),
		RoutingNumber: domain.MaskAccountNumber(req.RoutingNumber),
		AccountType:   accountType,
		IsPrimary:     len(existing) == 0,
		CreatedAt:     time.Now(),
	}

	if err := s.bankRepo.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// List retrieves a driver's bank accounts, primary first.
func (s *BankAccountService) List(ctx context.Context, driverID string) ([]*domain.BankAccount, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.bankRepo.ListByDriver(ctx, driverID)
}
