package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rideq/internal/domain"
	"rideq/internal/money"
	"rideq/internal/repository"
)

// SettlementCrediter consumes ride-completion events. The ride ledger never
// writes balance fields itself; completion emits exactly one credit keyed by
// ride ID and the settlement side absorbs redelivery.
type SettlementCrediter interface {
	CreditRide(ctx context.Context, driverID, rideID string, amount money.Cents) error
}

// RideService owns ride records and their state machine.
type RideService struct {
	rideRepo   repository.RideRepository
	fare       *FareService
	demand     *DemandService
	promo      *PromoService
	settlement SettlementCrediter
	charges    ChargeProcessor
}

// NewRideService creates a new RideService.
func NewRideService(
	rideRepo repository.RideRepository,
	fare *FareService,
	demand *DemandService,
	promo *PromoService,
	settlement SettlementCrediter,
	charges ChargeProcessor,
) *RideService {
	return &RideService{
		rideRepo:   rideRepo,
		fare:       fare,
		demand:     demand,
		promo:      promo,
		settlement: settlement,
		charges:    charges,
	}
}

// QuotePrice prices a candidate trip under current demand conditions. The
// quote is advisory; nothing is locked until a booking confirms.
func (s *RideService) QuotePrice(ctx context.Context, distanceMiles float64, scheduledTime time.Time, region, promoCode string) (*domain.PriceQuote, error) {
	at := scheduledTime
	if at.IsZero() {
		at = time.Now()
	}

	demand := s.demand.Current(ctx, region, time.Now())

	var promoDiscount float64
	if promoCode != "" {
		result, err := s.promo.Validate(ctx, promoCode)
		if err != nil {
			return nil, err
		}
		promoDiscount = result.Discount
	}

	return s.fare.Quote(QuoteInput{
		DistanceMiles:   distanceMiles,
		At:              at,
		DemandLevel:     demand.Level,
		SurgeMultiplier: demand.Multiplier,
		PromoDiscount:   promoDiscount,
	})
}

// BookRideRequest contains the parameters for booking a ride.
type BookRideRequest struct {
	CustomerID    string
	Pickup        domain.Location
	Dropoff       domain.Location
	DistanceMiles float64
	Region        string
	ScheduledTime time.Time // zero means on-demand
	PromoCode     string
}

// BookRide creates a ride, snapshotting price and pricing conditions at
// confirmation time. The snapshot is permanent: the price is never
// recomputed after booking.
func (s *RideService) BookRide(ctx context.Context, req BookRideRequest) (*domain.Ride, error) {
	if err := s.validateBookRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	at := req.ScheduledTime
	if at.IsZero() {
		at = now
	}

	demand := s.demand.Current(ctx, req.Region, now)

	promoDiscount := 0.0
	promoCode := ""
	if req.PromoCode != "" {
		result, err := s.promo.Validate(ctx, req.PromoCode)
		if err != nil {
			return nil, err
		}
		if result.Valid {
			promoDiscount = result.Discount
			promoCode = req.PromoCode
		}
	}

	quote, err := s.fare.Quote(QuoteInput{
		DistanceMiles:   req.DistanceMiles,
		At:              at,
		DemandLevel:     demand.Level,
		SurgeMultiplier: demand.Multiplier,
		PromoDiscount:   promoDiscount,
	})
	if err != nil {
		return nil, err
	}

	rideID := uuid.New().String()

	// Redeem before persisting so a lost single-use race reprices instead
	// of booking two rides against one code.
	if promoCode != "" {
		if err := s.promo.Redeem(ctx, promoCode, rideID); err != nil {
			if errors.Is(err, ErrPromoAlreadyRedeemed) {
				return nil, ErrPromoAlreadyRedeemed
			}
			return nil, err
		}
	}

	status := domain.RideStatusPending
	if !req.ScheduledTime.IsZero() {
		status = domain.RideStatusScheduled
	}

	region := req.Region
	if region == "" {
		region = DefaultRegion
	}

	ride := &domain.Ride{
		ID:              rideID,
		CustomerID:      req.CustomerID,
		Pickup:          req.Pickup,
		Dropoff:         req.Dropoff,
		DistanceMiles:   req.DistanceMiles,
		Region:          region,
		Status:          status,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		Price:           money.FromDollars(quote.Price),
		SurgeMultiplier: quote.SurgeMultiplier,
		IsHoliday:       quote.IsHoliday,
		PromoCode:       promoCode,
		ScheduledTime:   req.ScheduledTime,
		CreatedAt:       now,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	s.demand.RecordRequest(ctx, region, rideID, now)

	return ride, nil
}

func (s *RideService) validateBookRequest(req BookRideRequest) error {
	if req.CustomerID == "" {
		return ErrInvalidCustomerID
	}
	if req.Pickup.Label == "" {
		return ErrInvalidPickup
	}
	if req.Dropoff.Label == "" {
		return ErrInvalidDropoff
	}
	if req.DistanceMiles <= 0 {
		return ErrInvalidDistance
	}
	if !req.ScheduledTime.IsZero() && !req.ScheduledTime.After(time.Now()) {
		return ErrScheduledTimeInPast
	}
	return nil
}

// AcceptRide assigns a driver to an open ride. The repository claim is a
// compare-and-set, so of two concurrent acceptances exactly one wins and the
// other sees ErrRideAlreadyClaimed.
func (s *RideService) AcceptRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	err := s.rideRepo.Claim(ctx, rideID, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRideAlreadyClaimed
		}
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	// The driver is on a trip now; remove them from the supply signal.
	s.demand.MarkDriverBusy(ctx, ride.Region, driverID)

	return ride, nil
}

// CompleteRide transitions an active ride to completed and emits the
// settlement credit. The credit is idempotent on ride ID, so a duplicate
// completion event cannot pay a driver twice.
func (s *RideService) CompleteRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	err := s.rideRepo.Complete(ctx, rideID, time.Now())
	if err != nil && !errors.Is(err, repository.ErrConflict) {
		return nil, err
	}

	ride, getErr := s.rideRepo.GetByID(ctx, rideID)
	if getErr != nil {
		return nil, getErr
	}

	if errors.Is(err, repository.ErrConflict) {
		// Re-delivered completion for an already-completed ride falls
		// through to the idempotent credit; anything else is a real
		// state-machine violation.
		if ride.Status != domain.RideStatusCompleted {
			return nil, ErrInvalidStateTransition
		}
	}

	if ride.DriverID == "" {
		return nil, ErrInvalidStateTransition
	}

	if err := s.settlement.CreditRide(ctx, ride.DriverID, ride.ID, ride.Price); err != nil {
		return nil, err
	}

	return ride, nil
}

// CancelRide cancels an open ride. Active and completed rides reject
// cancellation.
func (s *RideService) CancelRide(ctx context.Context, rideID, actor, reason string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if reason == "" {
		reason = "cancelled by " + actor
	}

	err := s.rideRepo.Cancel(ctx, rideID, reason)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	return s.rideRepo.GetByID(ctx, rideID)
}

// ConfirmPayment captures the customer charge for a ride. A processor
// failure leaves the ride pending and unpaid so the customer can retry.
func (s *RideService) ConfirmPayment(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if ride.PaymentStatus == domain.PaymentStatusPaid {
		return ride, nil
	}
	if ride.Status == domain.RideStatusCancelled {
		return nil, ErrInvalidStateTransition
	}

	if err := s.charges.Charge(ctx, ride.CustomerID, ride.Price, ride.ID); err != nil {
		_ = s.rideRepo.SetPaymentStatus(ctx, ride.ID, domain.PaymentStatusFailed)
		return nil, ErrChargeFailed
	}

	if err := s.rideRepo.SetPaymentStatus(ctx, ride.ID, domain.PaymentStatusPaid); err != nil {
		return nil, err
	}
	ride.PaymentStatus = domain.PaymentStatusPaid

	return ride, nil
}

// GetRide retrieves a ride by ID.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	return s.rideRepo.GetByID(ctx, rideID)
}

// ListCustomerRides retrieves a customer's rides, newest first.
func (s *RideService) ListCustomerRides(ctx context.Context, customerID string) ([]*domain.Ride, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}
	return s.rideRepo.ListByCustomer(ctx, customerID)
}

// ListDriverRides retrieves a driver's rides, newest first.
func (s *RideService) ListDriverRides(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.rideRepo.ListByDriver(ctx, driverID)
}

// ListOpenRides retrieves rides open for acceptance, for the driver surface.
func (s *RideService) ListOpenRides(ctx context.Context) ([]*domain.Ride, error) {
	return s.rideRepo.ListOpen(ctx)
}

// ExpireScheduled cancels unaccepted scheduled rides whose scheduled time
// passed more than grace ago. Returns how many were cancelled. Races with a
// concurrent acceptance lose cleanly: the cancel is a compare-and-set.
func (s *RideService) ExpireScheduled(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := time.Now().Add(-grace)

	stale, err := s.rideRepo.ListScheduledBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, ride := range stale {
		err := s.rideRepo.Cancel(ctx, ride.ID, "expired")
		if err != nil {
			if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}
