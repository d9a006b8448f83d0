package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	DBPath string

	// Admin plane (refresh trigger, site registration)
	AdminJWTSecret        string
	AdminPassword         string
	AdminTokenExpireHours int

	// View ingestion rate limit: max requests per identifier per fixed window
	ViewRateLimitMax    int
	ViewRateLimitWindow time.Duration

	// Aggregate refresh cadences
	ViewCountRefreshInterval time.Duration
	StatsRefreshInterval     time.Duration

	// Optional shared rate-limit counter store. Empty means in-process counters.
	RedisAddr string

	// Per-request datastore timeout
	DBTimeout time.Duration
}

var AppConfig *Config

func LoadConfig() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	rateMax, _ := strconv.Atoi(getEnv("VIEW_RATE_LIMIT_MAX", "100"))
	rateWindowMin, _ := strconv.Atoi(getEnv("VIEW_RATE_LIMIT_WINDOW_MINUTES", "60"))
	viewRefreshMin, _ := strconv.Atoi(getEnv("VIEW_COUNT_REFRESH_MINUTES", "5"))
	statsRefreshMin, _ := strconv.Atoi(getEnv("STATS_REFRESH_MINUTES", "10"))
	tokenExpire, _ := strconv.Atoi(getEnv("ADMIN_TOKEN_EXPIRE_HOURS", "12"))
	dbTimeoutSec, _ := strconv.Atoi(getEnv("DB_TIMEOUT_SECONDS", "5"))

	AppConfig = &Config{
		Port:                     getEnv("PORT", "8080"),
		DBPath:                   getEnv("DB_PATH", "./data/bookshelf.db"),
		AdminJWTSecret:           os.Getenv("ADMIN_JWT_SECRET"),
		AdminPassword:            os.Getenv("ADMIN_PASSWORD"),
		AdminTokenExpireHours:    tokenExpire,
		ViewRateLimitMax:         rateMax,
		ViewRateLimitWindow:      time.Duration(rateWindowMin) * time.Minute,
		ViewCountRefreshInterval: time.Duration(viewRefreshMin) * time.Minute,
		StatsRefreshInterval:     time.Duration(statsRefreshMin) * time.Minute,
		RedisAddr:                os.Getenv("REDIS_ADDR"),
		DBTimeout:                time.Duration(dbTimeoutSec) * time.Second,
	}

	// Validate critical configuration
	if err := validateConfig(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// validateConfig validates critical configuration at startup
func validateConfig() error {
	if AppConfig.AdminJWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is required but not set")
	}
	if AppConfig.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required but not set")
	}

	// Enforce minimum secret strength (at least 32 characters)
	if len(AppConfig.AdminJWTSecret) < 32 {
		return fmt.Errorf("ADMIN_JWT_SECRET must be at least 32 characters long for security")
	}

	if AppConfig.ViewRateLimitMax <= 0 {
		return fmt.Errorf("VIEW_RATE_LIMIT_MAX must be positive")
	}
	if AppConfig.ViewRateLimitWindow <= 0 {
		return fmt.Errorf("VIEW_RATE_LIMIT_WINDOW_MINUTES must be positive")
	}

	return nil
}
