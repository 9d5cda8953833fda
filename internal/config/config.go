package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	// Gorzdrav scheduling API
	GorzdravBaseURL string
	GorzdravToken   string
	GorzdravTimeout time.Duration

	// Telegram notifications
	TelegramBotToken string
	TelegramAPIURL   string

	// Background loops
	BookingInterval      time.Duration
	SweepInterval        time.Duration
	DirectoryCacheTTL    time.Duration
	DirectoryCacheEnable bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		GorzdravBaseURL: getEnv("GORZDRAV_BASE_URL", "https://gorzdrav.spb.ru"),
		GorzdravToken:   getEnv("GORZDRAV_TOKEN", ""),
		GorzdravTimeout: getEnvAsDuration("GORZDRAV_TIMEOUT", 30*time.Second),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIURL:   getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),

		BookingInterval:      getEnvAsDuration("BOOKING_INTERVAL", 10*time.Second),
		SweepInterval:        getEnvAsDuration("SWEEP_INTERVAL", time.Hour),
		DirectoryCacheTTL:    getEnvAsDuration("DIRECTORY_CACHE_TTL", 12*time.Hour),
		DirectoryCacheEnable: getEnvAsBool("DIRECTORY_CACHE_ENABLE", true),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
