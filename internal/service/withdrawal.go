package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"rideq/internal/config"
	"rideq/internal/domain"
	"rideq/internal/money"
	"rideq/internal/repository"
)

// WithdrawalService runs the withdrawal state machine against the settlement
// ledger and the external payout rail.
//
//	pending -> processing -> completed
//	pending -> cancelled              (releases reservation)
//	processing -> failed              (releases reservation)
type WithdrawalService struct {
	withdrawalRepo repository.WithdrawalRepository
	bankRepo       repository.BankAccountRepository
	settlement     *SettlementService
	rail           PayoutRail
	cfg            config.WithdrawalConfig
}

// NewWithdrawalService creates a new WithdrawalService.
func NewWithdrawalService(
	withdrawalRepo repository.WithdrawalRepository,
	bankRepo repository.BankAccountRepository,
	settlement *SettlementService,
	rail PayoutRail,
	cfg config.WithdrawalConfig,
) *WithdrawalService {
	return &WithdrawalService{
		withdrawalRepo: withdrawalRepo,
		bankRepo:       bankRepo,
		settlement:     settlement,
		rail:           rail,
		cfg:            cfg,
	}
}

// Request creates a pending withdrawal. The reserve step is the
// serialization point: two concurrent requests cannot jointly earmark more
// than the available balance.
func (s *WithdrawalService) Request(ctx context.Context, driverID, bankAccountID string, amount money.Cents) (*domain.Withdrawal, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if amount < s.cfg.Minimum {
		return nil, ErrBelowMinimumWithdrawal
	}

	account, err := s.bankRepo.GetByID(ctx, bankAccountID)
	if err != nil {
		return nil, err
	}
	if account.DriverID != driverID {
		return nil, ErrBankAccountNotOwned
	}

	if err := s.settlement.Reserve(ctx, driverID, amount); err != nil {
		return nil, err
	}

	w := &domain.Withdrawal{
		ID:            uuid.New().String(),
		DriverID:      driverID,
		BankAccountID: bankAccountID,
		Amount:        amount,
		Status:        domain.WithdrawalStatusPending,
		RequestedAt:   time.Now(),
	}

	if err := s.withdrawalRepo.Create(ctx, w); err != nil {
		// The reservation must not outlive a failed request.
		if relErr := s.settlement.Release(ctx, driverID, amount); relErr != nil {
			log.Printf("release after failed withdrawal create: driver=%s amount=%s: %v", driverID, amount, relErr)
		}
		return nil, err
	}

	return w, nil
}

// Cancel cancels a pending withdrawal and releases its reservation. Once
// processing has engaged the rail, the driver can no longer cancel.
func (s *WithdrawalService) Cancel(ctx context.Context, withdrawalID, driverID string) (*domain.Withdrawal, error) {
	w, err := s.withdrawalRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if w.DriverID != driverID {
		return nil, repository.ErrNotFound
	}

	err = s.withdrawalRepo.Transition(ctx, w.ID,
		domain.WithdrawalStatusPending, domain.WithdrawalStatusCancelled, "", time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrWithdrawalNotPending
		}
		return nil, err
	}

	if err := s.settlement.Release(ctx, w.DriverID, w.Amount); err != nil {
		return nil, err
	}

	return s.withdrawalRepo.GetByID(ctx, w.ID)
}

// List retrieves a driver's withdrawals, newest first.
func (s *WithdrawalService) List(ctx context.Context, driverID string) ([]*domain.Withdrawal, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.withdrawalRepo.ListByDriver(ctx, driverID)
}

// Get retrieves one withdrawal for the requesting driver.
func (s *WithdrawalService) Get(ctx context.Context, withdrawalID, driverID string) (*domain.Withdrawal, error) {
	w, err := s.withdrawalRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if w.DriverID != driverID {
		return nil, repository.ErrNotFound
	}
	return w, nil
}

// ProcessPending drains the pending queue: each withdrawal moves to
// processing under a compare-and-set (so concurrent workers cannot engage
// the rail twice), then resolves from the rail outcome. A rail error is
// terminal: the withdrawal fails and the reservation is released; retry
// means a new request.
func (s *WithdrawalService) ProcessPending(ctx context.Context) (int, error) {
	pending, err := s.withdrawalRepo.ListByStatus(ctx, domain.WithdrawalStatusPending)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, w := range pending {
		err := s.withdrawalRepo.Transition(ctx, w.ID,
			domain.WithdrawalStatusPending, domain.WithdrawalStatusProcessing, "", time.Now())
		if err != nil {
			if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
				continue // another worker or a driver cancel got there first
			}
			return processed, err
		}

		if err := s.resolve(ctx, w); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

// resolve applies the payout-rail outcome to a processing withdrawal. The
// status write and the balance movement are separate statements; a crash
// between them surfaces in ListOutOfBalance.
func (s *WithdrawalService) resolve(ctx context.Context, w *domain.Withdrawal) error {
	railErr := s.rail.Payout(ctx, w.BankAccountID, w.Amount)
	now := time.Now()

	if railErr != nil {
		// Never leave money debited with no recorded attempt: mark failed,
		// then put the funds back.
		err := s.withdrawalRepo.Transition(ctx, w.ID,
			domain.WithdrawalStatusProcessing, domain.WithdrawalStatusFailed, railErr.Error(), now)
		if err != nil {
			return err
		}
		return s.settlement.Release(ctx, w.DriverID, w.Amount)
	}

	err := s.withdrawalRepo.Transition(ctx, w.ID,
		domain.WithdrawalStatusProcessing, domain.WithdrawalStatusCompleted, "", now)
	if err != nil {
		return err
	}
	return s.settlement.CommitWithdrawal(ctx, w.DriverID, w.Amount)
}

// ListStuck returns processing withdrawals with no rail confirmation past
// the configured timeout. Exposed for manual reconciliation only; money
// correctness must not guess, so nothing auto-transitions here.
func (s *WithdrawalService) ListStuck(ctx context.Context) ([]*domain.Withdrawal, error) {
	cutoff := time.Now().Add(-s.cfg.StuckAfter)
	return s.withdrawalRepo.ListProcessingSince(ctx, cutoff)
}

// ListOutOfBalance surfaces drivers whose reserved funds no longer match
// their open withdrawals, the trace left when a resolution records its
// status but loses the balance movement. Like stuck listing this is a
// reconcile query; nothing auto-corrects money.
func (s *WithdrawalService) ListOutOfBalance(ctx context.Context) ([]*domain.DriverBalance, error) {
	return s.settlement.ListOutOfBalance(ctx)
}
