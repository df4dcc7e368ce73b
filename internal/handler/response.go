package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rideq/internal/repository"
	"rideq/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError records the error on the context, where logging and tracing
// middleware pick it up, and writes the mapped status.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidPickup),
		errors.Is(err, service.ErrInvalidDropoff),
		errors.Is(err, service.ErrInvalidDistance),
		errors.Is(err, service.ErrUnreasonableDistance),
		errors.Is(err, service.ErrScheduledTimeInPast),
		errors.Is(err, service.ErrInvalidMessageText),
		errors.Is(err, service.ErrInvalidSenderType),
		errors.Is(err, service.ErrInvalidStars),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrBelowMinimumWithdrawal),
		errors.Is(err, service.ErrInvalidBankAccount):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrRideAlreadyClaimed),
		errors.Is(err, service.ErrInvalidStateTransition),
		errors.Is(err, service.ErrRideNotActive),
		errors.Is(err, service.ErrRideNotCompleted),
		errors.Is(err, service.ErrWithdrawalNotPending),
		errors.Is(err, service.ErrPromoAlreadyRedeemed),
		errors.Is(err, service.ErrAlreadyRated),
		errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrNotRideDriver),
		errors.Is(err, service.ErrBankAccountNotOwned):
		return http.StatusForbidden

	// Upstream processor failures
	case errors.Is(err, service.ErrChargeFailed),
		errors.Is(err, service.ErrPayoutFailed):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
