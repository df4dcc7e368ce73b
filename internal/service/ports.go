package service

import (
	"context"

	"rideq/internal/money"
)

// ChargeProcessor is the interface for the external payment capture rail.
// Gateway SDK details live outside the core.
type ChargeProcessor interface {
	Charge(ctx context.Context, customerID string, amount money.Cents, rideID string) error
}

// PayoutRail is the interface for the external bank payout rail.
type PayoutRail interface {
	Payout(ctx context.Context, bankAccountID string, amount money.Cents) error
}

// MockChargeProcessor is a ChargeProcessor for testing and local runs.
type MockChargeProcessor struct {
	// Err, when set, is returned from every charge.
	Err error
}

// NewMockChargeProcessor creates a charge processor that always succeeds.
func NewMockChargeProcessor() *MockChargeProcessor {
	return &MockChargeProcessor{}
}

// Charge simulates a payment capture.
func (p *MockChargeProcessor) Charge(ctx context.Context, customerID string, amount money.Cents, rideID string) error {
	return p.Err
}

// MockPayoutRail is a PayoutRail for testing and local runs.
type MockPayoutRail struct {
	// Err, when set, is returned from every payout.
	Err error
}

// NewMockPayoutRail creates a payout rail that always succeeds.
func NewMockPayoutRail() *MockPayoutRail {
	return &MockPayoutRail{}
}

// Payout simulates a bank transfer.
func (p *MockPayoutRail) Payout(ctx context.Context, bankAccountID string, amount money.Cents) error {
	return p.Err
}
