package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"rideq/internal/app"
	"rideq/internal/config"
	"rideq/internal/handler"
	"rideq/internal/jobs"
	internalRedis "rideq/internal/redis"
	"rideq/internal/repository/postgres"
	"rideq/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, runner := wireServer(db, redisClient, nrApp, cfg)

	// Start background workers.
	jobsCtx, jobsCancel := context.WithCancel(context.Background())
	runner.Start(jobsCtx)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	jobsCancel()
	runner.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// background job runner.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *jobs.Runner) {
	// Initialize Redis stores.
	demandStore := internalRedis.NewDemandStore(redisClient)
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Initialize repositories.
	rideRepo := postgres.NewRideRepository(db)
	settlementRepo := postgres.NewSettlementRepository(db)
	withdrawalRepo := postgres.NewWithdrawalRepository(db)
	bankAccountRepo := postgres.NewBankAccountRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	promoRepo := postgres.NewPromoRepository(db)
	ratingRepo := postgres.NewRatingRepository(db)

	// Initialize services.
	fareService := service.NewFareService(cfg.Pricing)
	demandService := service.NewDemandService(demandStore, cfg.Surge)
	promoService := service.NewPromoService(promoRepo)
	settlementService := service.NewSettlementService(settlementRepo, ratingRepo)
	rideService := service.NewRideService(rideRepo, fareService, demandService, promoService,
		settlementService, service.NewMockChargeProcessor())
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, bankAccountRepo,
		settlementService, service.NewMockPayoutRail(), cfg.Withdrawal)
	bankAccountService := service.NewBankAccountService(bankAccountRepo)
	messageService := service.NewMessageService(messageRepo, rideRepo)
	ratingService := service.NewRatingService(ratingRepo, rideRepo)
	trackingService := service.NewTrackingService(locationStore, rideRepo)

	// Initialize handlers.
	quoteHandler := handler.NewQuoteHandler(rideService)
	rideHandler := handler.NewRideHandler(rideService)
	driverHandler := handler.NewDriverHandler(settlementService, bankAccountService, demandService)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalService)
	messageHandler := handler.NewMessageHandler(messageService)
	ratingHandler := handler.NewRatingHandler(ratingService)
	locationHandler := handler.NewLocationHandler(trackingService)
	promoHandler := handler.NewPromoHandler(promoService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		QuoteHandler:      quoteHandler,
		RideHandler:       rideHandler,
		DriverHandler:     driverHandler,
		WithdrawalHandler: withdrawalHandler,
		MessageHandler:    messageHandler,
		RatingHandler:     ratingHandler,
		LocationHandler:   locationHandler,
		PromoHandler:      promoHandler,
		RedisClient:       redisClient,
		NewRelicApp:       nrApp,
	})

	runner := jobs.NewRunner(withdrawalService, rideService, lockStore, cfg.Jobs)

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return server, runner
}
