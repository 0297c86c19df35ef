package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"arcade/database"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// HTTP configuration
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	CORSOrigins    string        `env:"CORS_ORIGINS" envDefault:"*"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "text" or "json"

	// Progression tuning; empty uses the embedded default document
	ProgressionFile string `env:"PROGRESSION_FILE"`

	// Leaderboard cache; a zero TTL disables caching
	LeaderboardCacheTTL  time.Duration `env:"LEADERBOARD_CACHE_TTL" envDefault:"5s"`
	LeaderboardCacheSize int           `env:"LEADERBOARD_CACHE_SIZE" envDefault:"32"`

	// NATS configuration; empty disables event forwarding
	NATSServers string `env:"NATS_SERVERS"`
	NATSStream  string `env:"NATS_STREAM" envDefault:"arcade_events"`

	// Discord webhook for unlock announcements; empty disables announcements
	DiscordWebhookURL string `env:"DISCORD_WEBHOOK_URL"`

	// Metrics
	MetricsEnabled        bool          `env:"METRICS_ENABLED" envDefault:"false"`
	MetricsExporter       string        `env:"METRICS_EXPORTER" envDefault:"stdout"` // "stdout", "otlp" or "none"
	MetricsServiceName    string        `env:"METRICS_SERVICE_NAME" envDefault:"arcade"`
	OTLPEndpoint          string        `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	MetricsExportInterval time.Duration `env:"METRICS_EXPORT_INTERVAL" envDefault:"30s"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
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
			if os.Getenv("ENVIRONMENT") == "test" {
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

// load loads configuration from a .env file (if any) and environment variables
func load() (*Config, error) {
	// A missing .env file is fine; the environment may be set by the orchestrator
	_ = godotenv.Load()

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Environment == "test" {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.LeaderboardCacheSize <= 0 {
		return fmt.Errorf("LEADERBOARD_CACHE_SIZE must be positive")
	}
	switch c.MetricsExporter {
	case "stdout", "otlp", "none":
	default:
		return fmt.Errorf("unknown METRICS_EXPORTER %q", c.MetricsExporter)
	}
	return nil
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
		Environment:          "test",
		HTTPAddr:             ":0",
		JWTSecret:            "test-secret",
		TokenTTL:             time.Hour,
		RequestTimeout:       5 * time.Second,
		CORSOrigins:          "*",
		LogLevel:             "debug",
		LogFormat:            "text",
		LeaderboardCacheTTL:  0,
		LeaderboardCacheSize: 8,
		MetricsExporter:      "none",
		MetricsServiceName:   "arcade-test",
	}
}
