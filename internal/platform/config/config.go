package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Redis backs the distributed lock coordinator and the idempotency
	// fast-path cache. Empty RedisAddr disables both (locks fall back to
	// the in-process noop locker, idempotency runs database-only).
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// LockAcquireBudget caps how long a command waits for its lock set
	// before giving up with a conflict.
	LockAcquireBudget time.Duration

	OutboxSweepInterval  time.Duration
	OutboxSweepBatchSize int

	ForecastDefaultWeeks int
	ForecastCashBuffer   decimal.Decimal
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "ledgera-backend")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOCK_ACQUIRE_BUDGET", "5s")
	viper.SetDefault("OUTBOX_SWEEP_INTERVAL", "5s")
	viper.SetDefault("OUTBOX_SWEEP_BATCH_SIZE", 100)
	viper.SetDefault("FORECAST_DEFAULT_WEEKS", 13)
	viper.SetDefault("FORECAST_CASH_BUFFER", "0")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiry, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiry = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiry)
	}
	cfg.JWTExpiryDuration = jwtExpiry

	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.RedisPassword = viper.GetString("REDIS_PASSWORD")
	cfg.RedisDB = viper.GetInt("REDIS_DB")
	if cfg.RedisAddr == "" {
		log.Println("Warning: REDIS_ADDR not set. Distributed locks and idempotency cache are disabled.")
	}

	cfg.LockAcquireBudget = parseDurationOr("LOCK_ACQUIRE_BUDGET", 5*time.Second)
	cfg.OutboxSweepInterval = parseDurationOr("OUTBOX_SWEEP_INTERVAL", 5*time.Second)

	cfg.OutboxSweepBatchSize = viper.GetInt("OUTBOX_SWEEP_BATCH_SIZE")
	if cfg.OutboxSweepBatchSize <= 0 {
		cfg.OutboxSweepBatchSize = 100
	}

	cfg.ForecastDefaultWeeks = viper.GetInt("FORECAST_DEFAULT_WEEKS")
	if cfg.ForecastDefaultWeeks <= 0 {
		cfg.ForecastDefaultWeeks = 13
	}

	bufferStr := viper.GetString("FORECAST_CASH_BUFFER")
	buffer, err := decimal.NewFromString(bufferStr)
	if err != nil {
		buffer = decimal.Zero
		log.Printf("Warning: Invalid value for FORECAST_CASH_BUFFER ('%s'). Defaulting to 0.\n", bufferStr)
	}
	cfg.ForecastCashBuffer = buffer

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		return fallback
	}
	return d
}
