package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"rideq/internal/domain"
	"rideq/internal/repository"
)

// maxMessageLen bounds one chat message.
const maxMessageLen = 1000

// MessageService is the per-ride messaging relay: an append-only log read by
// both dashboards via polling.
type MessageService struct {
	messageRepo repository.MessageRepository
	rideRepo    repository.RideRepository
}

// NewMessageService creates a new MessageService.
func NewMessageService(messageRepo repository.MessageRepository, rideRepo repository.RideRepository) *MessageService {
	return &MessageService{messageRepo: messageRepo, rideRepo: rideRepo}
}

// Send appends a message to a ride's log.
func (s *MessageService) Send(ctx context.Context, rideID, senderID string, senderType domain.SenderType, text string) (*domain.Message, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if senderType != domain.SenderCustomer && senderType != domain.SenderDriver {
		return nil, ErrInvalidSenderType
	}

	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxMessageLen {
		return nil, ErrInvalidMessageText
	}

	// The log only exists for real rides.
	if _, err := s.rideRepo.GetByID(ctx, rideID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:         uuid.New().String(),
		RideID:     rideID,
		SenderID:   senderID,
		SenderType: senderType,
		Text:       text,
		CreatedAt:  time.Now(),
	}

	if err := s.messageRepo.Append(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListSince retrieves a ride's messages at or after the cursor, in stable
// created-time-then-ID order. A zero since returns the full log.
func (s *MessageService) ListSince(ctx context.Context, rideID string, since time.Time) ([]*domain.Message, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	return s.messageRepo.ListSince(ctx, rideID, since)
}
