package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideq/internal/domain"
	"rideq/internal/service"
)

// RatingHandler handles HTTP requests for post-ride ratings.
type RatingHandler struct {
	ratingService *service.RatingService
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(ratingService *service.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

// SubmitRatingRequest is the HTTP request body for submitting a rating.
type SubmitRatingRequest struct {
	RatedBy string `json:"rated_by"` // customer, driver
	Stars   int    `json:"stars"`
	Comment string `json:"comment,omitempty"`
}

// RatingResponse is the HTTP representation of a rating.
type RatingResponse struct {
	ID        string `json:"id"`
	RideID    string `json:"ride_id"`
	RatedID   string `json:"rated_id"`
	RatedBy   string `json:"rated_by"`
	Stars     int    `json:"stars"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toRatingResponse(r *domain.Rating) RatingResponse {
	return RatingResponse{
		ID:        r.ID,
		RideID:    r.RideID,
		RatedID:   r.RatedID,
		RatedBy:   string(r.RatedBy),
		Stars:     r.Stars,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

// SubmitRating handles POST /v1/rides/:id/ratings
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	var req SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	rating, err := h.ratingService.Submit(c.Request.Context(),
		c.Param("id"), domain.SenderType(req.RatedBy), req.Stars, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRatingResponse(rating))
}

// ListRatings handles GET /v1/rides/:id/ratings
func (h *RatingHandler) ListRatings(c *gin.Context) {
	ratings, err := h.ratingService.ListForRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RatingResponse, 0, len(ratings))
	for _, r := range ratings {
		response = append(response, toRatingResponse(r))
	}
	respondJSON(c, http.StatusOK, response)
}
