package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Baccarat/internal/analyze"
	"github.com/Alias1177/Baccarat/internal/database"
)

// Config holds all application configuration
type Config struct {
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	Strategy       string        `env:"STRATEGY" envDefault:"derived_roads"`
	HistoryWindow  int           `env:"HISTORY_WINDOW" envDefault:"80"` // rounds shown in the record line
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"10m"`
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	CommandsPerSec float64       `env:"COMMANDS_PER_SEC" envDefault:"10"`
	WebJournal     bool          `env:"WEB_JOURNAL" envDefault:"false"` // journal web analyses to the database

	Database database.ConnectionParams

	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramBotUsername string `env:"TELEGRAM_BOT_USERNAME"`

	StripeAPIKey        string   `env:"STRIPE_API_KEY"`
	StripePriceID       string   `env:"STRIPE_SUBSCRIPTION_PRICE_ID"`
	StripeWebhookSecret string   `env:"STRIPE_WEBHOOK_SECRET"`
	PremiumStrategies   []string `env:"PREMIUM_STRATEGIES" envDefault:"derived_roads"`

	BroadcastRate float64 `env:"BROADCAST_RATE" envDefault:"25"` // messages per second

	SimShoes   int   `env:"SIM_SHOES" envDefault:"1000"`
	SimHands   int   `env:"SIM_HANDS" envDefault:"70"`
	SimWorkers int   `env:"SIM_WORKERS"`
	SimSeed    int64 `env:"SIM_SEED" envDefault:"0"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.Strategy = getEnvWithDefault("STRATEGY", analyze.StrategyDerivedRoads)
	cfg.HistoryWindow = getEnvIntWithDefault("HISTORY_WINDOW", 80)
	cfg.SessionTTL = getEnvDurationWithDefault("SESSION_TTL", 2*time.Hour)
	cfg.SweepInterval = getEnvDurationWithDefault("SWEEP_INTERVAL", 10*time.Minute)
	cfg.HTTPAddr = getEnvWithDefault("HTTP_ADDR", ":8080")
	cfg.CommandsPerSec = getEnvFloatWithDefault("COMMANDS_PER_SEC", 10)
	cfg.WebJournal = getEnvBoolWithDefault("WEB_JOURNAL", false)

	cfg.Database = database.ConnectionParams{
		Driver:         getEnvWithDefault("DB_DRIVER", database.DriverPostgres),
		Host:           os.Getenv("DB_HOST"),
		Port:           getEnvWithDefault("DB_PORT", "5432"),
		User:           os.Getenv("DB_USER"),
		Password:       os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		SSLMode:        getEnvWithDefault("DB_SSLMODE", "disable"),
		Path:           getEnvWithDefault("DB_PATH", "baccarat.db"),
		ConnectTimeout: getEnvDurationWithDefault("DB_CONNECT_TIMEOUT", 30*time.Second),
	}

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramBotUsername = os.Getenv("TELEGRAM_BOT_USERNAME")

	cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")
	cfg.StripePriceID = os.Getenv("STRIPE_SUBSCRIPTION_PRICE_ID")
	cfg.StripeWebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	cfg.PremiumStrategies = getEnvListWithDefault("PREMIUM_STRATEGIES", []string{analyze.StrategyDerivedRoads})

	cfg.BroadcastRate = getEnvFloatWithDefault("BROADCAST_RATE", 25)

	cfg.SimShoes = getEnvIntWithDefault("SIM_SHOES", 1000)
	cfg.SimHands = getEnvIntWithDefault("SIM_HANDS", 70)
	cfg.SimWorkers = getEnvIntWithDefault("SIM_WORKERS", runtime.NumCPU())
	cfg.SimSeed = int64(getEnvIntWithDefault("SIM_SEED", 0))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that have no safe fallback
func (c *Config) Validate() error {
	if _, err := analyze.NewStrategy(c.Strategy); err != nil {
		return fmt.Errorf("STRATEGY: %w", err)
	}
	for _, name := range c.PremiumStrategies {
		if _, err := analyze.NewStrategy(name); err != nil {
			return fmt.Errorf("PREMIUM_STRATEGIES: %w", err)
		}
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("HISTORY_WINDOW must be positive, got %d", c.HistoryWindow)
	}
	if c.SessionTTL <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_TTL and SWEEP_INTERVAL must be positive")
	}
	if c.CommandsPerSec <= 0 {
		return fmt.Errorf("COMMANDS_PER_SEC must be positive, got %v", c.CommandsPerSec)
	}
	if c.BroadcastRate <= 0 {
		return fmt.Errorf("BROADCAST_RATE must be positive, got %v", c.BroadcastRate)
	}
	return nil
}

// SetupLogging points the global logger at a console writer on stderr
func SetupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		log.Warn().Str("level", logLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
