package postgres

import (
	"context"
	"database/sql"
	"time"

	"rideq/internal/domain"
)

// MessageRepository is a PostgreSQL implementation of
// repository.MessageRepository.
type MessageRepository struct {
	q Querier
}

// NewMessageRepository creates a new PostgreSQL message repository.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{q: db}
}

// Append adds a message to a ride's log.
func (r *MessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, ride_id, sender_id, sender_type, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		msg.ID, msg.RideID, msg.SenderID, msg.SenderType, msg.Text, msg.CreatedAt)
	return err
}

// ListSince retrieves a ride's messages at or after the cursor, ordered by
// created time then ID so repeated polls see a stable sequence.
func (r *MessageRepository) ListSince(ctx context.Context, rideID string, since time.Time) ([]*domain.Message, error) {
	query := `
		SELECT id, ride_id, sender_id, sender_type, text, created_at
		FROM messages
		WHERE ride_id = $1 AND created_at >= $2
		ORDER BY created_at, id
	`

	rows, err := r.q.QueryContext(ctx, query, rideID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		err := rows.Scan(&msg.ID, &msg.RideID, &msg.SenderID, &msg.SenderType, &msg.Text, &msg.CreatedAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
