package config

import (
	"os"
	"strconv"
	"time"

	"district/internal/cache"
	"district/internal/database"
	"district/internal/external"
	"district/internal/messaging"
)

type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Booking lifecycle
	HoldTimeout      time.Duration
	OfferTTL         time.Duration
	DefaultCurrency  string
	DegradedCapacity int

	// Outbox dispatcher
	DispatchInterval time.Duration
	DispatchBatch    int
	SweepInterval    time.Duration

	Database database.Config
	Cache    cache.Config
	NATS     messaging.Config
	Payment  external.PaymentConfig
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		HoldTimeout:      time.Duration(getEnvInt("BOOKING_HOLD_TIMEOUT_SEC", 900)) * time.Second,
		OfferTTL:         time.Duration(getEnvInt("WAITLIST_OFFER_TTL_SEC", 600)) * time.Second,
		DefaultCurrency:  getEnv("DEFAULT_CURRENCY", "INR"),
		DegradedCapacity: getEnvInt("DEGRADED_QUEUE_CAPACITY", 1000),

		DispatchInterval: time.Duration(getEnvInt("DISPATCH_INTERVAL_SEC", 5)) * time.Second,
		DispatchBatch:    getEnvInt("DISPATCH_BATCH_SIZE", 100),
		SweepInterval:    time.Duration(getEnvInt("SWEEP_INTERVAL_SEC", 60)) * time.Second,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "district"),
			Password:           getEnv("DB_PASSWORD", "district123"),
			DBName:             getEnv("DB_NAME", "district"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		Cache: cache.Config{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_TTL_SEC", 5)) * time.Second,
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "district"),
			ClientID:  getEnv("NATS_CLIENT_ID", "district-api"),
		},

		Payment: external.PaymentConfig{
			BaseURL: getEnv("PAYMENT_GATEWAY_URL", "https://api.payments.example.com"),
			KeyID:   getEnv("PAYMENT_KEY_ID", ""),
			Secret:  getEnv("PAYMENT_SECRET", ""),
			Timeout: time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
