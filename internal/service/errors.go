package service

import "errors"

var (
	// ErrInvalidCustomerID is returned when customer ID is empty.
	ErrInvalidCustomerID = errors.New("invalid customer id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidPickup is returned when the pickup label is empty.
	ErrInvalidPickup = errors.New("invalid pickup location")

	// ErrInvalidDropoff is returned when the dropoff label is empty.
	ErrInvalidDropoff = errors.New("invalid dropoff location")

	// ErrInvalidDistance is returned when distance is zero or negative.
	ErrInvalidDistance = errors.New("distance must be greater than zero")

	// ErrUnreasonableDistance is returned when distance exceeds the sanity
	// ceiling rather than silently pricing it.
	ErrUnreasonableDistance = errors.New("distance exceeds maximum serviceable miles")

	// ErrScheduledTimeInPast is returned when a scheduled time is not in the future.
	ErrScheduledTimeInPast = errors.New("scheduled time must be in the future")

	// ErrRideAlreadyClaimed is returned when a second driver tries to accept
	// a ride that is no longer open.
	ErrRideAlreadyClaimed = errors.New("ride no longer available")

	// ErrInvalidStateTransition is returned for any ride or withdrawal
	// transition the state machine does not allow.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrRideNotActive is returned when an operation requires an active ride.
	ErrRideNotActive = errors.New("ride is not active")

	// ErrRideNotCompleted is returned when an operation requires a completed ride.
	ErrRideNotCompleted = errors.New("ride is not completed")

	// ErrNotRideDriver is returned when a driver acts on a ride assigned to
	// someone else.
	ErrNotRideDriver = errors.New("driver not assigned to this ride")

	// ErrInsufficientBalance is returned when a withdrawal exceeds the
	// available balance.
	ErrInsufficientBalance = errors.New("insufficient available balance")

	// ErrBelowMinimumWithdrawal is returned when a withdrawal is below the
	// configured minimum.
	ErrBelowMinimumWithdrawal = errors.New("amount below minimum withdrawal")

	// ErrBankAccountNotOwned is returned when the bank account does not
	// belong to the requesting driver.
	ErrBankAccountNotOwned = errors.New("bank account does not belong to driver")

	// ErrWithdrawalNotPending is returned when cancelling a withdrawal that
	// has already engaged the payout rail or resolved.
	ErrWithdrawalNotPending = errors.New("withdrawal is no longer pending")

	// ErrPromoAlreadyRedeemed is returned when a single-use code lost the
	// redemption race.
	ErrPromoAlreadyRedeemed = errors.New("promo code already redeemed")

	// ErrInvalidMessageText is returned when a message is empty or too long.
	ErrInvalidMessageText = errors.New("invalid message text")

	// ErrInvalidSenderType is returned when sender type is not customer or driver.
	ErrInvalidSenderType = errors.New("invalid sender type")

	// ErrInvalidStars is returned when a rating is outside 1..5.
	ErrInvalidStars = errors.New("rating must be between 1 and 5 stars")

	// ErrAlreadyRated is returned when the same side rates a ride twice.
	ErrAlreadyRated = errors.New("ride already rated")

	// ErrInvalidAmount is returned when a money amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrChargeFailed is returned when the external charge processor fails;
	// the ride stays pending so the customer can retry payment.
	ErrChargeFailed = errors.New("charge processor failure")

	// ErrPayoutFailed is returned when the external payout rail fails.
	ErrPayoutFailed = errors.New("payout rail failure")
)
