package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rideq/internal/domain"
	"rideq/internal/money"
	"rideq/internal/repository"
)

// SettlementService owns driver balance accounting. It is the only writer of
// balance fields; everything money-affecting flows through it.
type SettlementService struct {
	settlementRepo repository.SettlementRepository
	ratingRepo     repository.RatingRepository
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	settlementRepo repository.SettlementRepository,
	ratingRepo repository.RatingRepository,
) *SettlementService {
	return &SettlementService{
		settlementRepo: settlementRepo,
		ratingRepo:     ratingRepo,
	}
}

// CreditRide credits a driver for a completed ride, exactly once per ride.
// Redelivered completion events are absorbed by the ledger's ride-ID key.
func (s *SettlementService) CreditRide(ctx context.Context, driverID, rideID string, amount money.Cents) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if rideID == "" {
		return ErrInvalidRideID
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	_, err := s.settlementRepo.Credit(ctx, &domain.LedgerEntry{
		ID:        uuid.New().String(),
		DriverID:  driverID,
		RideID:    rideID,
		Amount:    amount,
		CreatedAt: time.Now(),
	})
	return err
}

// GetBalance retrieves a driver's balance.
func (s *SettlementService) GetBalance(ctx context.Context, driverID string) (*domain.DriverBalance, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.settlementRepo.GetBalance(ctx, driverID)
}

// Reserve earmarks funds for a withdrawal. The available balance drops
// immediately; the caller later commits or releases.
func (s *SettlementService) Reserve(ctx context.Context, driverID string, amount money.Cents) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	err := s.settlementRepo.Reserve(ctx, driverID, amount)
	if err == repository.ErrConflict {
		return ErrInsufficientBalance
	}
	return err
}

// Release returns reserved funds to the available balance.
func (s *SettlementService) Release(ctx context.Context, driverID string, amount money.Cents) error {
	return s.settlementRepo.Release(ctx, driverID, amount)
}

// CommitWithdrawal finalizes reserved funds as withdrawn.
func (s *SettlementService) CommitWithdrawal(ctx context.Context, driverID string, amount money.Cents) error {
	return s.settlementRepo.CommitWithdrawal(ctx, driverID, amount)
}

// ListOutOfBalance finds balances whose reserved amount disagrees with the
// sum of the driver's open withdrawals.
func (s *SettlementService) ListOutOfBalance(ctx context.Context) ([]*domain.DriverBalance, error) {
	return s.settlementRepo.ListOutOfBalance(ctx)
}

// GetStats summarizes a driver's completed work for the dashboard.
func (s *SettlementService) GetStats(ctx context.Context, driverID string) (*domain.DriverStats, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	balance, err := s.settlementRepo.GetBalance(ctx, driverID)
	if err != nil {
		return nil, err
	}

	completed, err := s.settlementRepo.CountCredits(ctx, driverID)
	if err != nil {
		return nil, err
	}

	avg, count, err := s.ratingRepo.AverageForDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	return &domain.DriverStats{
		DriverID:       driverID,
		CompletedRides: completed,
		TotalEarnings:  balance.TotalEarnings,
		AverageRating:  avg,
		RatingCount:    count,
	}, nil
}
