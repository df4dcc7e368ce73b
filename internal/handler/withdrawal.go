package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideq/internal/domain"
	"rideq/internal/money"
	"rideq/internal/service"
)

// WithdrawalHandler handles HTTP requests for driver withdrawals.
type WithdrawalHandler struct {
	withdrawalService *service.WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawalService *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService}
}

// RequestWithdrawalRequest is the HTTP request body for requesting a
// withdrawal. Amount is in dollars.
type RequestWithdrawalRequest struct {
	DriverID      string  `json:"driver_id"`
	BankAccountID string  `json:"bank_account_id"`
	Amount        float64 `json:"amount"`
}

// WithdrawalResponse is the HTTP representation of a withdrawal.
type WithdrawalResponse struct {
	ID            string  `json:"id"`
	DriverID      string  `json:"driver_id"`
	BankAccountID string  `json:"bank_account_id"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	FailureReason string  `json:"failure_reason,omitempty"`
	RequestedAt   string  `json:"requested_at"`
	ResolvedAt    string  `json:"resolved_at,omitempty"`
}

func toWithdrawalResponse(w *domain.Withdrawal) WithdrawalResponse {
	resp := WithdrawalResponse{
		ID:            w.ID,
		DriverID:      w.DriverID,
		BankAccountID: w.BankAccountID,
		Amount:        w.Amount.Dollars(),
		Status:        string(w.Status),
		FailureReason: w.FailureReason,
		RequestedAt:   w.RequestedAt.Format(time.RFC3339),
	}
	if !w.ResolvedAt.IsZero() {
		resp.ResolvedAt = w.ResolvedAt.Format(time.RFC3339)
	}
	return resp
}

func toWithdrawalResponses(withdrawals []*domain.Withdrawal) []WithdrawalResponse {
	out := make([]WithdrawalResponse, 0, len(withdrawals))
	for _, w := range withdrawals {
		out = append(out, toWithdrawalResponse(w))
	}
	return out
}

// RequestWithdrawal handles POST /v1/withdrawals
func (h *WithdrawalHandler) RequestWithdrawal(c *gin.Context) {
	var req RequestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	w, err := h.withdrawalService.Request(c.Request.Context(),
		req.DriverID, req.BankAccountID, money.FromDollars(req.Amount))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toWithdrawalResponse(w))
}

// GetWithdrawal handles GET /v1/withdrawals/:id?driver_id=
func (h *WithdrawalHandler) GetWithdrawal(c *gin.Context) {
	w, err := h.withdrawalService.Get(c.Request.Context(), c.Param("id"), c.Query("driver_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toWithdrawalResponse(w))
}

// ListWithdrawals handles GET /v1/withdrawals?driver_id=
func (h *WithdrawalHandler) ListWithdrawals(c *gin.Context) {
	withdrawals, err := h.withdrawalService.List(c.Request.Context(), c.Query("driver_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toWithdrawalResponses(withdrawals))
}

// CancelWithdrawalRequest is the HTTP request body for cancelling a
// withdrawal.
type CancelWithdrawalRequest struct {
	DriverID string `json:"driver_id"`
}

// CancelWithdrawal handles POST /v1/withdrawals/:id/cancel
func (h *WithdrawalHandler) CancelWithdrawal(c *gin.Context) {
	var req CancelWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	w, err := h.withdrawalService.Cancel(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toWithdrawalResponse(w))
}

// ListStuck handles GET /v1/withdrawals/stuck, for operator reconciliation.
func (h *WithdrawalHandler) ListStuck(c *gin.Context) {
	withdrawals, err := h.withdrawalService.ListStuck(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toWithdrawalResponses(withdrawals))
}

// ListOutOfBalance handles GET /v1/withdrawals/out-of-balance, for operator
// reconciliation.
func (h *WithdrawalHandler) ListOutOfBalance(c *gin.Context) {
	balances, err := h.withdrawalService.ListOutOfBalance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]BalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, BalanceResponse{
			DriverID:         b.DriverID,
			TotalEarnings:    b.TotalEarnings.Dollars(),
			TotalWithdrawn:   b.TotalWithdrawn.Dollars(),
			AvailableBalance: b.AvailableBalance.Dollars(),
			Reserved:         b.Reserved().Dollars(),
		})
	}
	respondJSON(c, http.StatusOK, out)
}
