package domain

import "time"

// SenderType identifies which side of a ride sent a message.
type SenderType string

const (
	SenderCustomer SenderType = "customer"
	SenderDriver   SenderType = "driver"
)

// Message is one entry in a ride's append-only message log. Ordering is by
// CreatedAt, then ID, for a stable sequence under concurrent appends.
type Message struct {
	ID         string
	RideID     string
	SenderID   string
	SenderType SenderType
	Text       string
	CreatedAt  time.Time
}
