package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideq/internal/service"
)

// PromoHandler handles HTTP requests for promo code validation.
type PromoHandler struct {
	promoService *service.PromoService
}

// NewPromoHandler creates a new PromoHandler.
func NewPromoHandler(promoService *service.PromoService) *PromoHandler {
	return &PromoHandler{promoService: promoService}
}

// ValidatePromoRequest is the HTTP request body for validating a promo code.
type ValidatePromoRequest struct {
	Code string `json:"code"`
}

// ValidatePromoResponse is the HTTP response for promo validation. An
// unknown or consumed code is valid=false, not an error.
type ValidatePromoResponse struct {
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount,omitempty"`
}

// ValidatePromo handles POST /v1/promos/validate
func (h *PromoHandler) ValidatePromo(c *gin.Context) {
	var req ValidatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.promoService.Validate(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ValidatePromoResponse{
		Valid:    result.Valid,
		Discount: result.Discount,
	})
}
