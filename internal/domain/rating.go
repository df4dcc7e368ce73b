package domain

import (
	"time"

	"rideq/internal/money"
)

// Rating is post-ride feedback from one side of a completed ride. Each side
// may rate a ride once.
type Rating struct {
	ID        string
	RideID    string
	RatedID   string // the customer or driver being rated
	RatedBy   SenderType
	Stars     int // 1..5
	Comment   string
	CreatedAt time.Time
}

// DriverStats summarizes a driver's completed work for the dashboard.
type DriverStats struct {
	DriverID       string
	CompletedRides int
	TotalEarnings  money.Cents
	AverageRating  float64 // 0 when unrated
	RatingCount    int
}
