package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"rideq/internal/handler"
	"rideq/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	QuoteHandler      *handler.QuoteHandler
	RideHandler       *handler.RideHandler
	DriverHandler     *handler.DriverHandler
	WithdrawalHandler *handler.WithdrawalHandler
	MessageHandler    *handler.MessageHandler
	RatingHandler     *handler.RatingHandler
	LocationHandler   *handler.LocationHandler
	PromoHandler      *handler.PromoHandler
	RedisClient       *redis.Client
	NewRelicApp       *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NewRelicEnrichmentMiddleware())
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Quote routes.
		v1.POST("/quotes", deps.QuoteHandler.Quote)

		// Promo routes.
		v1.POST("/promos/validate", deps.PromoHandler.ValidatePromo)

		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.BookRide)
			rides.GET("", deps.RideHandler.ListRides)
			rides.GET("/open", deps.RideHandler.ListOpenRides)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/accept", deps.RideHandler.AcceptRide)
			rides.POST("/:id/complete", deps.RideHandler.CompleteRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
			rides.POST("/:id/payment", deps.RideHandler.ConfirmPayment)
			rides.POST("/:id/messages", deps.MessageHandler.SendMessage)
			rides.GET("/:id/messages", deps.MessageHandler.ListMessages)
			rides.POST("/:id/ratings", deps.RatingHandler.SubmitRating)
			rides.GET("/:id/ratings", deps.RatingHandler.ListRatings)
			rides.PUT("/:id/location", deps.LocationHandler.PublishPosition)
			rides.GET("/:id/location", deps.LocationHandler.GetPosition)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.GET("/:id/balance", deps.DriverHandler.GetBalance)
			drivers.GET("/:id/stats", deps.DriverHandler.GetStats)
			drivers.POST("/:id/bank-accounts", deps.DriverHandler.AddBankAccount)
			drivers.GET("/:id/bank-accounts", deps.DriverHandler.ListBankAccounts)
			drivers.POST("/:id/availability", deps.DriverHandler.SetAvailability)
		}

		// Withdrawal routes.
		withdrawals := v1.Group("/withdrawals")
		{
			withdrawals.POST("", deps.WithdrawalHandler.RequestWithdrawal)
			withdrawals.GET("", deps.WithdrawalHandler.ListWithdrawals)
			withdrawals.GET("/stuck", deps.WithdrawalHandler.ListStuck)
			withdrawals.GET("/out-of-balance", deps.WithdrawalHandler.ListOutOfBalance)
			withdrawals.GET("/:id", deps.WithdrawalHandler.GetWithdrawal)
			withdrawals.POST("/:id/cancel", deps.WithdrawalHandler.CancelWithdrawal)
		}
	}

	return router
}
