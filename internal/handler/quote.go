package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideq/internal/service"
)

// QuoteHandler handles HTTP requests for price quotes.
type QuoteHandler struct {
	rideService *service.RideService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(rideService *service.RideService) *QuoteHandler {
	return &QuoteHandler{rideService: rideService}
}

// QuoteRequest is the HTTP request body for a price quote.
type QuoteRequest struct {
	DistanceMiles float64 `json:"distance_miles"`
	Region        string  `json:"region,omitempty"`
	ScheduledTime string  `json:"scheduled_time,omitempty"` // RFC 3339
	PromoCode     string  `json:"promo_code,omitempty"`
}

// QuoteResponse is the HTTP response for a price quote.
type QuoteResponse struct {
	DistanceMiles    float64 `json:"distance_miles"`
	BaseFare         float64 `json:"base_fare"`
	PerMile          float64 `json:"per_mile"`
	SurgeMultiplier  float64 `json:"surge_multiplier"`
	DemandLevel      string  `json:"demand_level"`
	IsHoliday        bool    `json:"is_holiday"`
	PromoDiscount    float64 `json:"promo_discount,omitempty"`
	EstimatedMinutes int     `json:"estimated_minutes"`
	Price            float64 `json:"price"`
}

// Quote handles POST /v1/quotes
func (h *QuoteHandler) Quote(c *gin.Context) {
	var req QuoteRequest
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

	quote, err := h.rideService.QuotePrice(c.Request.Context(), req.DistanceMiles, scheduledTime, req.Region, req.PromoCode)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, QuoteResponse{
		DistanceMiles:    quote.DistanceMiles,
		BaseFare:         quote.BaseFare,
		PerMile:          quote.PerMile,
		SurgeMultiplier:  quote.SurgeMultiplier,
		DemandLevel:      string(quote.DemandLevel),
		IsHoliday:        quote.IsHoliday,
		PromoDiscount:    quote.PromoDiscount,
		EstimatedMinutes: int(quote.EstimatedTime.Minutes()),
		Price:            quote.Price,
	})
}
