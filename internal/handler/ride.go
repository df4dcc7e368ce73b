package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideq/internal/domain"
	"rideq/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// LocationPayload is a pickup or dropoff point in request/response bodies.
type LocationPayload struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat,omitempty"`
	Lng   float64 `json:"lng,omitempty"`
}

// BookRideRequest is the HTTP request body for booking a ride.
type BookRideRequest struct {
	CustomerID    string          `json:"customer_id"`
	Pickup        LocationPayload `json:"pickup"`
	Dropoff       LocationPayload `json:"dropoff"`
	DistanceMiles float64         `json:"distance_miles"`
	Region        string          `json:"region,omitempty"`
	ScheduledTime string          `json:"scheduled_time,omitempty"` // RFC 3339; empty means on-demand
	PromoCode     string          `json:"promo_code,omitempty"`
}

// AcceptRideRequest is the HTTP request body for accepting a ride.
type AcceptRideRequest struct {
	DriverID string `json:"driver_id"`
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason,omitempty"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	DriverID        string          `json:"driver_id,omitempty"`
	Pickup          LocationPayload `json:"pickup"`
	Dropoff         LocationPayload `json:"dropoff"`
	DistanceMiles   float64         `json:"distance_miles"`
	Region          string          `json:"region"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	Price           float64         `json:"price"`
	SurgeMultiplier float64         `json:"surge_multiplier"`
	SurgeActive     bool            `json:"surge_active"`
	IsHoliday       bool            `json:"is_holiday"`
	PromoCode       string          `json:"promo_code,omitempty"`
	ScheduledTime   string          `json:"scheduled_time,omitempty"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	CreatedAt       string          `json:"created_at"`
	CompletedAt     string          `json:"completed_at,omitempty"`
}

func toRideResponse(r *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:              r.ID,
		CustomerID:      r.CustomerID,
		DriverID:        r.DriverID,
		Pickup:          LocationPayload{Label: r.Pickup.Label, Lat: r.Pickup.Lat, Lng: r.Pickup.Lng},
		Dropoff:         LocationPayload{Label: r.Dropoff.Label, Lat: r.Dropoff.Lat, Lng: r.Dropoff.Lng},
		DistanceMiles:   r.DistanceMiles,
		Region:          r.Region,
		Status:          string(r.Status),
		PaymentStatus:   string(r.PaymentStatus),
		Price:           r.Price.Dollars(),
		SurgeMultiplier: r.SurgeMultiplier,
		SurgeActive:     r.SurgeMultiplier > 1.0,
		IsHoliday:       r.IsHoliday,
		PromoCode:       r.PromoCode,
		CancelReason:    r.CancelReason,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
	if !r.ScheduledTime.IsZero() {
		resp.ScheduledTime = r.ScheduledTime.Format(time.RFC3339)
	}
	if !r.CompletedAt.IsZero() {
		resp.CompletedAt = r.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

func toRideResponses(rides []*domain.Ride) []RideResponse {
	out := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		out = append(out, toRideResponse(r))
	}
	return out
}

// BookRide handles POST /v1/rides
func (h *RideHandler) BookRide(c *gin.Context) {
	var req BookRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	var scheduledTime time.Time
	if req.ScheduledTime != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "scheduled_time must be RFC 3339"})
			return
		}
		scheduledTime = t
	}

	ride, err := h.rideService.BookRide(c.Request.Context(), service.BookRideRequest{
		CustomerID:    req.CustomerID,
		Pickup:        domain.Location{Label: req.Pickup.Label, Lat: req.Pickup.Lat, Lng: req.Pickup.Lng},
		Dropoff:       domain.Location{Label: req.Dropoff.Label, Lat: req.Dropoff.Lat, Lng: req.Dropoff.Lng},
		DistanceMiles: req.DistanceMiles,
		Region:        req.Region,
		ScheduledTime: scheduledTime,
		PromoCode:     req.PromoCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// ListRides handles GET /v1/rides?customer_id= or ?driver_id=
func (h *RideHandler) ListRides(c *gin.Context) {
	ctx := c.Request.Context()

	if customerID := c.Query("customer_id"); customerID != "" {
		rides, err := h.rideService.ListCustomerRides(ctx, customerID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondJSON(c, http.StatusOK, toRideResponses(rides))
		return
	}

	if driverID := c.Query("driver_id"); driverID != "" {
		rides, err := h.rideService.ListDriverRides(ctx, driverID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondJSON(c, http.StatusOK, toRideResponses(rides))
		return
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "customer_id or driver_id query parameter required"})
}

// ListOpenRides handles GET /v1/rides/open
func (h *RideHandler) ListOpenRides(c *gin.Context) {
	rides, err := h.rideService.ListOpenRides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponses(rides))
}

// AcceptRide handles POST /v1/rides/:id/accept
func (h *RideHandler) AcceptRide(c *gin.Context) {
	var req AcceptRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.AcceptRide(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CompleteRide handles POST /v1/rides/:id/complete
func (h *RideHandler) CompleteRide(c *gin.Context) {
	ride, err := h.rideService.CompleteRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.CancelRide(c.Request.Context(), c.Param("id"), req.CancelledBy, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// ConfirmPayment handles POST /v1/rides/:id/payment
func (h *RideHandler) ConfirmPayment(c *gin.Context) {
	ride, err := h.rideService.ConfirmPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}
