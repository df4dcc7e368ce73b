package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideq/internal/domain"
	"rideq/internal/service"
)

// MessageHandler handles HTTP requests for per-ride messaging.
type MessageHandler struct {
	messageService *service.MessageService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// SendMessageRequest is the HTTP request body for sending a message.
type SendMessageRequest struct {
	SenderID   string `json:"sender_id"`
	SenderType string `json:"sender_type"` // customer, driver
	Text       string `json:"text"`
}

// MessageResponse is the HTTP representation of a message.
type MessageResponse struct {
	ID         string `json:"id"`
	RideID     string `json:"ride_id"`
	SenderID   string `json:"sender_id"`
	SenderType string `json:"sender_type"`
	Text       string `json:"text"`
	CreatedAt  string `json:"created_at"`
}

func toMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		RideID:     m.RideID,
		SenderID:   m.SenderID,
		SenderType: string(m.SenderType),
		Text:       m.Text,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339Nano),
	}
}

// SendMessage handles POST /v1/rides/:id/messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(),
		c.Param("id"), req.SenderID, domain.SenderType(req.SenderType), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toMessageResponse(msg))
}

// ListMessages handles GET /v1/rides/:id/messages?since=<RFC 3339>
// Without since, the full log is returned; with it, only messages at or after
// the cursor, so dashboards can poll incrementally.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "since must be RFC 3339"})
			return
		}
		since = t
	}

	messages, err := h.messageService.ListSince(c.Request.Context(), c.Param("id"), since)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, toMessageResponse(m))
	}
	respondJSON(c, http.StatusOK, response)
}
