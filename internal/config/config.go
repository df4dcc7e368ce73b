package config

import (
	"os"
	"strconv"
	"time"

	"rideq/internal/money"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NewRelic   NewRelicConfig
	Pricing    PricingConfig
	Surge      SurgeConfig
	Withdrawal WithdrawalConfig
	Jobs       JobsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// PricingConfig holds the canonical fare formula constants.
type PricingConfig struct {
	BaseFare         float64 // dollars
	PerMile          float64 // dollars
	PlatformDiscount float64 // headline "cheaper than competitors" factor
	HolidayDiscount  float64
	AvgSpeedMph      float64 // advisory estimated-time only
	MaxDistanceMiles float64 // sanity ceiling; above this a quote is rejected
}

// SurgeConfig holds the demand-band thresholds and multiplier bands.
type SurgeConfig struct {
	Window        time.Duration // trailing window for demand signals
	ModerateMin   float64       // multiplier at ratio 1.0
	ModerateMax   float64       // multiplier at ratio 2.0
	HighSlope     float64       // multiplier growth per ratio unit above 2.0
	MaxMultiplier float64
}

// WithdrawalConfig holds settlement thresholds.
type WithdrawalConfig struct {
	Minimum    money.Cents
	StuckAfter time.Duration // processing with no rail confirmation
}

// JobsConfig holds background worker intervals.
type JobsConfig struct {
	WithdrawalInterval time.Duration
	ExpiryInterval     time.Duration
	ExpiryGrace        time.Duration // past scheduledTime before auto-cancel
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "rideq"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "rideq-core"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Pricing: PricingConfig{
			BaseFare:         getFloatEnv("PRICING_BASE_FARE", 2.50),
			PerMile:          getFloatEnv("PRICING_PER_MILE", 1.75),
			PlatformDiscount: getFloatEnv("PRICING_PLATFORM_DISCOUNT", 0.15),
			HolidayDiscount:  getFloatEnv("PRICING_HOLIDAY_DISCOUNT", 0.10),
			AvgSpeedMph:      getFloatEnv("PRICING_AVG_SPEED_MPH", 30),
			MaxDistanceMiles: getFloatEnv("PRICING_MAX_DISTANCE_MILES", 500),
		},
		Surge: SurgeConfig{
			Window:        getDurationEnv("SURGE_WINDOW", 10*time.Minute),
			ModerateMin:   getFloatEnv("SURGE_MODERATE_MIN", 1.1),
			ModerateMax:   getFloatEnv("SURGE_MODERATE_MAX", 1.3),
			HighSlope:     getFloatEnv("SURGE_HIGH_SLOPE", 0.35),
			MaxMultiplier: getFloatEnv("SURGE_MAX_MULTIPLIER", 2.0),
		},
		Withdrawal: WithdrawalConfig{
			Minimum:    money.Cents(getIntEnv("WITHDRAWAL_MINIMUM_CENTS", 1000)),
			StuckAfter: getDurationEnv("WITHDRAWAL_STUCK_AFTER", 30*time.Minute),
		},
		Jobs: JobsConfig{
			WithdrawalInterval: getDurationEnv("JOBS_WITHDRAWAL_INTERVAL", 15*time.Second),
			ExpiryInterval:     getDurationEnv("JOBS_EXPIRY_INTERVAL", time.Minute),
			ExpiryGrace:        getDurationEnv("JOBS_EXPIRY_GRACE", 15*time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
