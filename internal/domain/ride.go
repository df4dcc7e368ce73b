package domain

import (
	"time"

	"rideq/internal/money"
)

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusPending   RideStatus = "pending"
	RideStatusScheduled RideStatus = "scheduled"
	RideStatusActive    RideStatus = "active"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

// PaymentStatus represents the charge-capture outcome for a ride.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusFailed PaymentStatus = "failed"
)

// Location is a free-text place label with optionally resolved coordinates.
type Location struct {
	Label string
	Lat   float64
	Lng   float64
}

// HasCoords reports whether the location carries resolved coordinates.
func (l Location) HasCoords() bool {
	return l.Lat != 0 || l.Lng != 0
}

// Ride represents a ride request in the system. Price and the pricing
// conditions (surge, holiday, promo) are snapshotted at booking time and
// never recomputed.
type Ride struct {
	ID              string
	CustomerID      string
	DriverID        string // set exactly once, at acceptance
	Pickup          Location
	Dropoff         Location
	DistanceMiles   float64
	Region          string
	Status          RideStatus
	PaymentStatus   PaymentStatus
	Price           money.Cents
	SurgeMultiplier float64
	IsHoliday       bool
	PromoCode       string
	ScheduledTime   time.Time // zero means immediate/on-demand
	CancelReason    string
	CreatedAt       time.Time
	CompletedAt     time.Time
}

// Open reports whether the ride is still open for driver acceptance.
func (r *Ride) Open() bool {
	return r.Status == RideStatusPending || r.Status == RideStatusScheduled
}

// OpenStatuses returns the states a ride can be claimed or cancelled from.
func OpenStatuses() []RideStatus {
	return []RideStatus{RideStatusPending, RideStatusScheduled}
}
