package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Shaxten/nhl-app/database"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr   string
	AdminToken string // Bearer token for the admin routes

	// Ledger configuration
	StartingBalance int64

	// Wager windows, relative to scheduled game start
	SingleBetCutoff   time.Duration // Single bets close this long after puck drop
	ParlayLegCutoff   time.Duration // Parlay legs close this long after puck drop
	CancelCutoff      time.Duration // Single bets can be cancelled until this long after puck drop
	PredictionCutoff  time.Duration // Predictions close this long after puck drop
	PredictionEditFor time.Duration // Predictions are editable this long after submission

	// NHL API configuration
	NHLAPIBaseURL string
	HTTPTimeout   time.Duration

	// Fetch cache configuration
	CacheBackend      string // "memory" or "redis"
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	StandingsCacheTTL time.Duration
	ScheduleCacheTTL  time.Duration
	ResultCacheTTL    time.Duration

	// Settlement configuration
	SettlementCron string // Empty disables scheduled settlement

	// NATS configuration
	NATSServers string // Empty disables event forwarding

	// Discord configuration
	DiscordToken     string
	DiscordChannelID string // Channel that receives settlement summaries

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

var envFileOnce sync.Once

// LoadEnvFile copies .env from the working directory into the process environment, once.
// Variables already set are left alone.
func LoadEnvFile() {
	envFileOnce.Do(func() {
		if err := loadEnvFile(".env"); err != nil {
			log.WithError(err).Warn("Failed to load .env file")
		}
	})
}

// loadEnvFile treats a missing file as success since that is the normal case outside local development
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// load loads configuration from the environment, reading a .env file first when present
func load() (*Config, error) {
	LoadEnvFile()

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		HTTPAddr:   getEnvWithDefault("HTTP_ADDR", ":8080"),
		AdminToken: os.Getenv("ADMIN_TOKEN"),

		StartingBalance: 1000,

		SingleBetCutoff:   getDurationWithDefault("SINGLE_BET_CUTOFF", 30*time.Minute),
		ParlayLegCutoff:   getDurationWithDefault("PARLAY_LEG_CUTOFF", 5*time.Minute),
		CancelCutoff:      getDurationWithDefault("CANCEL_CUTOFF", 15*time.Minute),
		PredictionCutoff:  getDurationWithDefault("PREDICTION_CUTOFF", 0),
		PredictionEditFor: getDurationWithDefault("PREDICTION_EDIT_WINDOW", 15*time.Minute),

		NHLAPIBaseURL: getEnvWithDefault("NHL_API_BASE_URL", "https://api-web.nhle.com/v1"),
		HTTPTimeout:   getDurationWithDefault("HTTP_TIMEOUT", 10*time.Second),

		CacheBackend:      getEnvWithDefault("CACHE_BACKEND", "memory"),
		RedisAddr:         getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		StandingsCacheTTL: getDurationWithDefault("STANDINGS_CACHE_TTL", 6*time.Hour),
		ScheduleCacheTTL:  getDurationWithDefault("SCHEDULE_CACHE_TTL", 5*time.Minute),
		ResultCacheTTL:    getDurationWithDefault("RESULT_CACHE_TTL", 6*time.Hour),

		SettlementCron: os.Getenv("SETTLEMENT_CRON"),

		NATSServers: os.Getenv("NATS_SERVERS"),

		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "millcoins"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "none"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelExportIntervalMillis: 30000,

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsedBalance, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsedBalance
		}
	}
	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if parsedDB, err := strconv.Atoi(redisDB); err == nil {
			config.RedisDB = parsedDB
		}
	}
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); interval != "" {
		if parsedInterval, err := strconv.Atoi(interval); err == nil && parsedInterval > 0 {
			config.OTelExportIntervalMillis = parsedInterval
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
		if config.CacheBackend != "memory" && config.CacheBackend != "redis" {
			return nil, fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", config.CacheBackend)
		}
		if config.StartingBalance < 0 {
			return nil, fmt.Errorf("STARTING_BALANCE cannot be negative")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationWithDefault parses a Go duration string ("90s", "15m") from the environment
func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:       "test",
		HTTPAddr:          ":0",
		AdminToken:        "test-admin-token",
		StartingBalance:   1000,
		SingleBetCutoff:   30 * time.Minute,
		ParlayLegCutoff:   5 * time.Minute,
		CancelCutoff:      15 * time.Minute,
		PredictionCutoff:  0,
		PredictionEditFor: 15 * time.Minute,
		NHLAPIBaseURL:     "http://localhost",
		HTTPTimeout:       2 * time.Second,
		CacheBackend:      "memory",
		StandingsCacheTTL: time.Hour,
		ScheduleCacheTTL:  time.Minute,
		ResultCacheTTL:    time.Hour,
		OTelServiceName:   "millcoins-test",
		OTelExporterType:  "none",
		LogLevel:          "debug",
	}
}
