package repository

import (
	"context"
	"time"

	"rideq/internal/domain"
)

// MessageRepository defines persistence for the per-ride message log.
type MessageRepository interface {
	// Append adds a message to a ride's log. The log is append-only.
	Append(ctx context.Context, msg *domain.Message) error

	// ListSince retrieves a ride's messages at or after the cursor, ordered
	// by created time then ID. A zero since returns the full log.
	ListSince(ctx context.Context, rideID string, since time.Time) ([]*domain.Message, error)
}
