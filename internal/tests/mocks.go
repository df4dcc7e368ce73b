package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"rideq/internal/domain"
	"rideq/internal/money"
	"rideq/internal/redis"
	"rideq/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. State
// transitions use the same compare-and-set semantics as the postgres
// repository, so races resolve with exactly one winner.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount   int32
	ClaimCallCount    int32
	CompleteCallCount int32
	CancelCallCount   int32

	// Error injection
	CreateError   error
	ClaimError    error
	CompleteError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Ride
	for _, r := range m.rides {
		if r.CustomerID == customerID {
			copy := *r
			result = append(result, &copy)
		}
	}
	sortRidesNewestFirst(result)
	return result, nil
}

func (m *MockRideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Ride
	for _, r := range m.rides {
		if r.DriverID == driverID {
			copy := *r
			result = append(result, &copy)
		}
	}
	sortRidesNewestFirst(result)
	return result, nil
}

func (m *MockRideRepository) ListOpen(ctx context.Context) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Ride
	for _, r := range m.rides {
		if r.Open() {
			copy := *r
			result = append(result, &copy)
		}
	}
	sortRidesNewestFirst(result)
	return result, nil
}

func (m *MockRideRepository) ListScheduledBefore(ctx context.Context, cutoff time.Time) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Ride
	for _, r := range m.rides {
		if r.Status == domain.RideStatusScheduled && !r.ScheduledTime.IsZero() && r.ScheduledTime.Before(cutoff) {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRideRepository) Claim(ctx context.Context, rideID, driverID string) error {
	atomic.AddInt32(&m.ClaimCallCount, 1)
	if m.ClaimError != nil {
		return m.ClaimError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	if !ride.Open() || ride.DriverID != "" {
		return repository.ErrConflict
	}
	ride.Status = domain.RideStatusActive
	ride.DriverID = driverID
	return nil
}

func (m *MockRideRepository) Complete(ctx context.Context, rideID string, at time.Time) error {
	atomic.AddInt32(&m.CompleteCallCount, 1)
	if m.CompleteError != nil {
		return m.CompleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	if ride.Status != domain.RideStatusActive || ride.DriverID == "" {
		return repository.ErrConflict
	}
	ride.Status = domain.RideStatusCompleted
	ride.CompletedAt = at
	return nil
}

func (m *MockRideRepository) Cancel(ctx context.Context, rideID, reason string) error {
	atomic.AddInt32(&m.CancelCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	if !ride.Open() {
		return repository.ErrConflict
	}
	ride.Status = domain.RideStatusCancelled
	ride.CancelReason = reason
	return nil
}

func (m *MockRideRepository) SetPaymentStatus(ctx context.Context, rideID string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	ride.PaymentStatus = status
	return nil
}

// GetRide returns the stored ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

func sortRidesNewestFirst(rides []*domain.Ride) {
	sort.Slice(rides, func(i, j int) bool {
		return rides[i].CreatedAt.After(rides[j].CreatedAt)
	})
}

// ──────────────────────────────────────────────
// MOCK SETTLEMENT REPOSITORY
// ──────────────────────────────────────────────

// MockSettlementRepository is a mock implementation of SettlementRepository.
// Credits are idempotent on ride ID and Reserve is conditional, matching the
// postgres repository's guarantees.
type MockSettlementRepository struct {
	mu       sync.Mutex
	balances map[string]*domain.DriverBalance
	ledger   map[string]*domain.LedgerEntry // keyed by ride ID

	// OpenWithdrawals reports the summed amount of a driver's pending and
	// processing withdrawals. Fixtures exercising reconciliation wire it
	// to the withdrawal mock.
	OpenWithdrawals func(driverID string) money.Cents

	// Counters for verification
	CreditCallCount  int32
	ReserveCallCount int32

	// Error injection
	CreditError  error
	ReserveError error
}

// NewMockSettlementRepository creates a new mock settlement repository.
func NewMockSettlementRepository() *MockSettlementRepository {
	return &MockSettlementRepository{
		balances: make(map[string]*domain.DriverBalance),
		ledger:   make(map[string]*domain.LedgerEntry),
	}
}

func (m *MockSettlementRepository) balance(driverID string) *domain.DriverBalance {
	b, ok := m.balances[driverID]
	if !ok {
		b = &domain.DriverBalance{DriverID: driverID}
		m.balances[driverID] = b
	}
	return b
}

func (m *MockSettlementRepository) GetBalance(ctx context.Context, driverID string) (*domain.DriverBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *m.balance(driverID)
	return &copy, nil
}

func (m *MockSettlementRepository) Credit(ctx context.Context, entry *domain.LedgerEntry) (bool, error) {
	atomic.AddInt32(&m.CreditCallCount, 1)
	if m.CreditError != nil {
		return false, m.CreditError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.ledger[entry.RideID]; exists {
		return false, nil
	}
	copy := *entry
	m.ledger[entry.RideID] = &copy
	b := m.balance(entry.DriverID)
	b.TotalEarnings += entry.Amount
	b.AvailableBalance += entry.Amount
	return true, nil
}

func (m *MockSettlementRepository) Reserve(ctx context.Context, driverID string, amount money.Cents) error {
	atomic.AddInt32(&m.ReserveCallCount, 1)
	if m.ReserveError != nil {
		return m.ReserveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.balance(driverID)
	if b.AvailableBalance < amount {
		return repository.ErrConflict
	}
	b.AvailableBalance -= amount
	return nil
}

func (m *MockSettlementRepository) Release(ctx context.Context, driverID string, amount money.Cents) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance(driverID).AvailableBalance += amount
	return nil
}

func (m *MockSettlementRepository) CommitWithdrawal(ctx context.Context, driverID string, amount money.Cents) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance(driverID).TotalWithdrawn += amount
	return nil
}

func (m *MockSettlementRepository) ListOutOfBalance(ctx context.Context) ([]*domain.DriverBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.DriverBalance
	for id, b := range m.balances {
		var open money.Cents
		if m.OpenWithdrawals != nil {
			open = m.OpenWithdrawals(id)
		}
		if b.Reserved() != open {
			copy := *b
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DriverID < result[j].DriverID
	})
	return result, nil
}

func (m *MockSettlementRepository) CountCredits(ctx context.Context, driverID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, e := range m.ledger {
		if e.DriverID == driverID {
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────
// MOCK WITHDRAWAL REPOSITORY
// ──────────────────────────────────────────────

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository.
type MockWithdrawalRepository struct {
	mu          sync.Mutex
	withdrawals map[string]*domain.Withdrawal

	// Counters for verification
	TransitionCallCount int32

	// Error injection
	CreateError error
}

// NewMockWithdrawalRepository creates a new mock withdrawal repository.
func NewMockWithdrawalRepository() *MockWithdrawalRepository {
	return &MockWithdrawalRepository{
		withdrawals: make(map[string]*domain.Withdrawal),
	}
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, w *domain.Withdrawal) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *w
	m.withdrawals[w.ID] = &copy
	return nil
}

func (m *MockWithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.withdrawals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *w
	return &copy, nil
}

func (m *MockWithdrawalRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Withdrawal
	for _, w := range m.withdrawals {
		if w.DriverID == driverID {
			copy := *w
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RequestedAt.After(result[j].RequestedAt)
	})
	return result, nil
}

func (m *MockWithdrawalRepository) ListByStatus(ctx context.Context, status domain.WithdrawalStatus) ([]*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Withdrawal
	for _, w := range m.withdrawals {
		if w.Status == status {
			copy := *w
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RequestedAt.Before(result[j].RequestedAt)
	})
	return result, nil
}

func (m *MockWithdrawalRepository) ListProcessingSince(ctx context.Context, cutoff time.Time) ([]*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Withdrawal
	for _, w := range m.withdrawals {
		if w.Status == domain.WithdrawalStatusProcessing && w.RequestedAt.Before(cutoff) {
			copy := *w
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockWithdrawalRepository) Transition(ctx context.Context, id string, from, to domain.WithdrawalStatus, reason string, at time.Time) error {
	atomic.AddInt32(&m.TransitionCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.withdrawals[id]
	if !ok {
		return repository.ErrNotFound
	}
	if w.Status != from {
		return repository.ErrConflict
	}
	w.Status = to
	w.FailureReason = reason
	if to.Terminal() {
		w.ResolvedAt = at
	}
	return nil
}

// OpenAmount sums a driver's pending and processing withdrawal amounts.
func (m *MockWithdrawalRepository) OpenAmount(driverID string) money.Cents {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total money.Cents
	for _, w := range m.withdrawals {
		if w.DriverID != driverID {
			continue
		}
		if w.Status == domain.WithdrawalStatusPending || w.Status == domain.WithdrawalStatusProcessing {
			total += w.Amount
		}
	}
	return total
}

// GetWithdrawal returns the stored withdrawal for test assertions.
func (m *MockWithdrawalRepository) GetWithdrawal(id string) *domain.Withdrawal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.withdrawals[id]
}

// ──────────────────────────────────────────────
// MOCK BANK ACCOUNT REPOSITORY
// ──────────────────────────────────────────────

// MockBankAccountRepository is a mock implementation of BankAccountRepository.
type MockBankAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.BankAccount
}

// NewMockBankAccountRepository creates a new mock bank account repository.
func NewMockBankAccountRepository() *MockBankAccountRepository {
	return &MockBankAccountRepository{
		accounts: make(map[string]*domain.BankAccount),
	}
}

func (m *MockBankAccountRepository) Create(ctx context.Context, account *domain.BankAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *account
	m.accounts[account.ID] = &copy
	return nil
}

func (m *MockBankAccountRepository) GetByID(ctx context.Context, id string) (*domain.BankAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *account
	return &copy, nil
}

func (m *MockBankAccountRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.BankAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.BankAccount
	for _, a := range m.accounts {
		if a.DriverID == driverID {
			copy := *a
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IsPrimary != result[j].IsPrimary {
			return result[i].IsPrimary
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK MESSAGE REPOSITORY
// ──────────────────────────────────────────────

// MockMessageRepository is a mock implementation of MessageRepository.
type MockMessageRepository struct {
	mu       sync.Mutex
	messages []*domain.Message
}

// NewMockMessageRepository creates a new mock message repository.
func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{}
}

func (m *MockMessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *msg
	m.messages = append(m.messages, &copy)
	return nil
}

func (m *MockMessageRepository) ListSince(ctx context.Context, rideID string, since time.Time) ([]*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Message
	for _, msg := range m.messages {
		if msg.RideID != rideID {
			continue
		}
		if !since.IsZero() && msg.CreatedAt.Before(since) {
			continue
		}
		copy := *msg
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK PROMO REPOSITORY
// ──────────────────────────────────────────────

// MockPromoRepository is a mock implementation of PromoRepository. Redeem is
// compare-and-set: exactly one concurrent redemption of a single-use code
// wins.
type MockPromoRepository struct {
	mu     sync.Mutex
	promos map[string]*domain.PromoCode

	// Counters for verification
	RedeemCallCount int32
}

// NewMockPromoRepository creates a new mock promo repository.
func NewMockPromoRepository() *MockPromoRepository {
	return &MockPromoRepository{
		promos: make(map[string]*domain.PromoCode),
	}
}

func (m *MockPromoRepository) Create(ctx context.Context, promo *domain.PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *promo
	m.promos[promo.Code] = &copy
	return nil
}

func (m *MockPromoRepository) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	promo, ok := m.promos[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *promo
	return &copy, nil
}

func (m *MockPromoRepository) Redeem(ctx context.Context, code, rideID string) error {
	atomic.AddInt32(&m.RedeemCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	promo, ok := m.promos[code]
	if !ok {
		return repository.ErrNotFound
	}
	if !promo.SingleUse {
		return nil
	}
	if promo.RedeemedByRide != "" {
		return repository.ErrConflict
	}
	promo.RedeemedByRide = rideID
	return nil
}

// ──────────────────────────────────────────────
// MOCK RATING REPOSITORY
// ──────────────────────────────────────────────

// MockRatingRepository is a mock implementation of RatingRepository.
type MockRatingRepository struct {
	mu      sync.Mutex
	ratings []*domain.Rating
}

// NewMockRatingRepository creates a new mock rating repository.
func NewMockRatingRepository() *MockRatingRepository {
	return &MockRatingRepository{}
}

func (m *MockRatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.ratings {
		if r.RideID == rating.RideID && r.RatedBy == rating.RatedBy {
			return repository.ErrConflict
		}
	}
	copy := *rating
	m.ratings = append(m.ratings, &copy)
	return nil
}

func (m *MockRatingRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Rating
	for _, r := range m.ratings {
		if r.RideID == rideID {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRatingRepository) AverageForDriver(ctx context.Context, driverID string) (float64, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum, count := 0, 0
	for _, r := range m.ratings {
		if r.RatedID == driverID && r.RatedBy == domain.SenderCustomer {
			sum += r.Stars
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// ──────────────────────────────────────────────
// MOCK DEMAND STORE
// ──────────────────────────────────────────────

// MockDemandStore is a mock implementation of DemandStoreInterface.
type MockDemandStore struct {
	mu        sync.Mutex
	requests  map[string]int
	drivers   map[string]map[string]bool
	Snapshots map[string]redis.DemandSnapshot // fixed answers per region, optional

	// Error injection
	SnapshotError error
}

// NewMockDemandStore creates a new mock demand store.
func NewMockDemandStore() *MockDemandStore {
	return &MockDemandStore{
		requests:  make(map[string]int),
		drivers:   make(map[string]map[string]bool),
		Snapshots: make(map[string]redis.DemandSnapshot),
	}
}

func (m *MockDemandStore) RecordRequest(ctx context.Context, region, rideID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[region]++
	return nil
}

func (m *MockDemandStore) MarkDriverAvailable(ctx context.Context, region, driverID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drivers[region] == nil {
		m.drivers[region] = make(map[string]bool)
	}
	m.drivers[region][driverID] = true
	return nil
}

func (m *MockDemandStore) MarkDriverBusy(ctx context.Context, region, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drivers[region], driverID)
	return nil
}

func (m *MockDemandStore) Snapshot(ctx context.Context, region string, window time.Duration, now time.Time) (redis.DemandSnapshot, error) {
	if m.SnapshotError != nil {
		return redis.DemandSnapshot{}, m.SnapshotError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap, ok := m.Snapshots[region]; ok {
		return snap, nil
	}
	return redis.DemandSnapshot{
		OpenRequests:     m.requests[region],
		AvailableDrivers: len(m.drivers[region]),
	}, nil
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.Mutex
	positions map[string]redis.DriverPosition
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		positions: make(map[string]redis.DriverPosition),
	}
}

func (m *MockLocationStore) Publish(ctx context.Context, rideID string, pos redis.DriverPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[rideID] = pos
	return nil
}

func (m *MockLocationStore) Get(ctx context.Context, rideID string) (*redis.DriverPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.positions[rideID]
	if !ok {
		return nil, nil
	}
	copy := pos
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[name] {
		return false, nil
	}
	m.locks[name] = true
	return true, nil
}

func (m *MockLockStore) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, name)
	return nil
}
