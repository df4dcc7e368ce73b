package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideq/internal/domain"
	"rideq/internal/service"
)

// DriverHandler handles HTTP requests for driver balance, stats, bank
// accounts, and availability heartbeats.
type DriverHandler struct {
	settlement  *service.SettlementService
	bankService *service.BankAccountService
	demand      *service.DemandService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(
	settlement *service.SettlementService,
	bankService *service.BankAccountService,
	demand *service.DemandService,
) *DriverHandler {
	return &DriverHandler{
		settlement:  settlement,
		bankService: bankService,
		demand:      demand,
	}
}

// BalanceResponse is the HTTP representation of a driver's balance.
type BalanceResponse struct {
	DriverID         string  `json:"driver_id"`
	TotalEarnings    float64 `json:"total_earnings"`
	TotalWithdrawn   float64 `json:"total_withdrawn"`
	AvailableBalance float64 `json:"available_balance"`
	Reserved         float64 `json:"reserved"`
}

// GetBalance handles GET /v1/drivers/:id/balance
func (h *DriverHandler) GetBalance(c *gin.Context) {
	balance, err := h.settlement.GetBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{
		DriverID:         balance.DriverID,
		TotalEarnings:    balance.TotalEarnings.Dollars(),
		TotalWithdrawn:   balance.TotalWithdrawn.Dollars(),
		AvailableBalance: balance.AvailableBalance.Dollars(),
		Reserved:         balance.Reserved().Dollars(),
	})
}

// StatsResponse is the HTTP representation of driver stats.
type StatsResponse struct {
	DriverID       string  `json:"driver_id"`
	CompletedRides int     `json:"completed_rides"`
	TotalEarnings  float64 `json:"total_earnings"`
	AverageRating  float64 `json:"average_rating"`
	RatingCount    int     `json:"rating_count"`
}

// GetStats handles GET /v1/drivers/:id/stats
func (h *DriverHandler) GetStats(c *gin.Context) {
	stats, err := h.settlement.GetStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, StatsResponse{
		DriverID:       stats.DriverID,
		CompletedRides: stats.CompletedRides,
		TotalEarnings:  stats.TotalEarnings.Dollars(),
		AverageRating:  stats.AverageRating,
		RatingCount:    stats.RatingCount,
	})
}

// AddBankAccountRequest is the HTTP request body for adding a bank account.
type AddBankAccountRequest struct {
	HolderName    string `json:"holder_name"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
	AccountType   string `json:"account_type,omitempty"` // checking, savings
}

// BankAccountResponse is the HTTP representation of a bank account. Numbers
// are masked at rest, so this never exposes more than the last four digits.
type BankAccountResponse struct {
	ID            string `json:"id"`
	DriverID      string `json:"driver_id"`
	HolderName    string `json:"holder_name"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
	IsPrimary     bool   `json:"is_primary"`
	CreatedAt     string `json:"created_at"`
}

func toBankAccountResponse(a *domain.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:            a.ID,
		DriverID:      a.DriverID,
		HolderName:    a.HolderName,
		BankName:      a.BankName,
		AccountNumber: a.AccountNumber,
		AccountType:   string(a.AccountType),
		IsPrimary:     a.IsPrimary,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

// AddBankAccount handles POST /v1/drivers/:id/bank-accounts
func (h *DriverHandler) AddBankAccount(c *gin.Context) {
	var req AddBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	account, err := h.bankService.Add(c.Request.Context(), service.AddBankAccountRequest{
		DriverID:      c.Param("id"),
		HolderName:    req.HolderName,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		RoutingNumber: req.RoutingNumber,
		AccountType:   domain.AccountType(req.AccountType),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBankAccountResponse(account))
}

// ListBankAccounts handles GET /v1/drivers/:id/bank-accounts
func (h *DriverHandler) ListBankAccounts(c *gin.Context) {
	accounts, err := h.bankService.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]BankAccountResponse, 0, len(accounts))
	for _, a := range accounts {
		response = append(response, toBankAccountResponse(a))
	}
	respondJSON(c, http.StatusOK, response)
}

// AvailabilityRequest is the HTTP request body for a driver availability
// heartbeat.
type AvailabilityRequest struct {
	Region    string `json:"region,omitempty"`
	Available bool   `json:"available"`
}

// SetAvailability handles POST /v1/drivers/:id/availability
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driverID := c.Param("id")
	if req.Available {
		if err := h.demand.MarkDriverAvailable(c.Request.Context(), req.Region, driverID, time.Now()); err != nil {
			respondError(c, err)
			return
		}
	} else {
		h.demand.MarkDriverBusy(c.Request.Context(), req.Region, driverID)
	}

	c.Status(http.StatusNoContent)
}
