package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"stakehouse/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DatabaseName string `envconfig:"DATABASE_NAME"`

	// Fairness configuration
	// FairnessSecret is the process-wide secret mixed into every draw seed.
	// The process refuses to start without it: no secret means no games.
	FairnessSecret string `envconfig:"FAIRNESS_SECRET"`

	// Webhook configuration
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`

	// Payment broadcaster configuration
	BroadcasterURL string `envconfig:"BROADCASTER_URL"`

	// NATS configuration
	NATSServers string `envconfig:"NATS_SERVERS" default:"nats://nats:4222"`

	// Tournament configuration
	TournamentPeriod time.Duration `envconfig:"TOURNAMENT_PERIOD" default:"168h"`
	SettlementGrace  time.Duration `envconfig:"SETTLEMENT_GRACE" default:"1h"`

	// Blackjack configuration
	BlackjackMaxSeats     int           `envconfig:"BLACKJACK_MAX_SEATS" default:"2"`
	DisconnectGracePeriod time.Duration `envconfig:"DISCONNECT_GRACE_PERIOD" default:"1m"`

	// Storage retry configuration
	RetryMaxAttempts uint          `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryDelay       time.Duration `envconfig:"RETRY_DELAY" default:"200ms"`

	// Environment
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
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

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.FairnessSecret == "" {
			return nil, fmt.Errorf("FAIRNESS_SECRET is required")
		}
		if config.WebhookSecret == "" {
			return nil, fmt.Errorf("WEBHOOK_SECRET is required")
		}
	}

	return &config, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:           "test",
		FairnessSecret:        "test-fairness-secret",
		WebhookSecret:         "test-webhook-secret",
		TournamentPeriod:      7 * 24 * time.Hour,
		SettlementGrace:       time.Hour,
		BlackjackMaxSeats:     2,
		DisconnectGracePeriod: time.Minute,
		RetryMaxAttempts:      3,
		RetryDelay:            time.Millisecond,
	}
}
