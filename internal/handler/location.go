package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideq/internal/service"
)

// LocationHandler handles HTTP requests for live ride tracking.
type LocationHandler struct {
	tracking *service.TrackingService
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(tracking *service.TrackingService) *LocationHandler {
	return &LocationHandler{tracking: tracking}
}

// PublishPositionRequest is the HTTP request body for a driver position
// update.
type PublishPositionRequest struct {
	DriverID string  `json:"driver_id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Heading  float64 `json:"heading,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
}

// PositionResponse is the HTTP representation of a driver position.
type PositionResponse struct {
	DriverID  string  `json:"driver_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Heading   float64 `json:"heading"`
	Speed     float64 `json:"speed"`
	UpdatedAt string  `json:"updated_at"`
}

// PublishPosition handles PUT /v1/rides/:id/location
func (h *LocationHandler) PublishPosition(c *gin.Context) {
	var req PublishPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.tracking.PublishPosition(c.Request.Context(),
		c.Param("id"), req.DriverID, req.Lat, req.Lng, req.Heading, req.Speed)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetPosition handles GET /v1/rides/:id/location
func (h *LocationHandler) GetPosition(c *gin.Context) {
	pos, err := h.tracking.GetPosition(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if pos == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no current position"})
		return
	}

	respondJSON(c, http.StatusOK, PositionResponse{
		DriverID:  pos.DriverID,
		Lat:       pos.Lat,
		Lng:       pos.Lng,
		Heading:   pos.Heading,
		Speed:     pos.Speed,
		UpdatedAt: pos.UpdatedAt.Format(time.RFC3339),
	})
}
