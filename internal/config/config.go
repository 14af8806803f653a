package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Environment
	Environment string

	// Database (optional, enables the move log)
	DatabaseURL    string
	MigrateOnStart bool

	// Redis (optional, enables event publishing)
	RedisURL      string
	EventsChannel string

	// Server
	Port        string
	GameAddr    string
	FrontendURL string
	OutboxSize  int

	// Game Settings
	PlayerAmount int
	HandSize     int
	EnforceRules bool
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Redis
		RedisURL:      getEnv("REDIS_URL", ""),
		EventsChannel: getEnv("EVENTS_CHANNEL", "rummy_events"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		GameAddr:    getEnv("GAME_ADDR", ":2556"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		OutboxSize:  getEnvInt("OUTBOX_SIZE", 256),

		// Game Settings
		PlayerAmount: getEnvInt("PLAYER_AMOUNT", 2),
		HandSize:     getEnvInt("HAND_SIZE", 10),
		EnforceRules: getEnvBool("ENFORCE_RULES", true),
	}
}

// Validate rejects settings a session cannot be started with
func (c *Config) Validate() error {
	if c.PlayerAmount < 2 {
		return fmt.Errorf("%w: PLAYER_AMOUNT must be at least 2, got %d", ErrInvalidConfig, c.PlayerAmount)
	}
	if c.HandSize < 1 {
		return fmt.Errorf("%w: HAND_SIZE must be positive, got %d", ErrInvalidConfig, c.HandSize)
	}
	// the first turn draws one more card after dealing
	if c.PlayerAmount*c.HandSize >= 52 {
		return fmt.Errorf("%w: %d players x %d cards leaves nothing to draw", ErrInvalidConfig, c.PlayerAmount, c.HandSize)
	}
	if c.OutboxSize < 1 {
		return fmt.Errorf("%w: OUTBOX_SIZE must be positive, got %d", ErrInvalidConfig, c.OutboxSize)
	}
	return nil
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
