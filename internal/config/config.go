// Package config provides configuration management for the wallet scanner application.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	DataAPI   DataAPIConfig
	Gamma     GammaConfig
	Sync      SyncConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// DataAPIConfig holds the upstream trade data API configuration
type DataAPIConfig struct {
	BaseURL           string
	LeaderboardURL    string
	RequestsPerSecond float64
	PageTimeout       time.Duration
}

// GammaConfig holds the market metadata API configuration
type GammaConfig struct {
	BaseURL string
}

// SyncConfig holds scan worker configuration
type SyncConfig struct {
	PollInterval       time.Duration
	WalletConcurrency  int // wallets processed in parallel (default: 30)
	LookupConcurrency  int // concurrent market metadata lookups (default: 10)
	MaxBackfillPages   int // page cap for a cold full backfill (default: 5000)
	MaxIncrementalPage int // page cap for a warm incremental sync (default: 100)
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	MarketTagTTL time.Duration
	StatsTTL     time.Duration
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	FreeTierRPS    int
	PremiumTierRPS int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "wallet_scanner"),
				User:           getEnv("POSTGRES_USER", "scanner"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 100),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "wallet_scanner"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 50),
			},
		},
		DataAPI: DataAPIConfig{
			BaseURL:           getEnv("DATA_API_BASE_URL", "https://data-api.polymarket.com"),
			LeaderboardURL:    getEnv("LEADERBOARD_API_BASE_URL", "https://lb-api.polymarket.com"),
			RequestsPerSecond: getEnvAsFloat("DATA_API_RPS", 10.0),
			PageTimeout:       getEnvAsDuration("DATA_API_PAGE_TIMEOUT", 5*time.Second),
		},
		Gamma: GammaConfig{
			BaseURL: getEnv("GAMMA_API_BASE_URL", "https://gamma-api.polymarket.com"),
		},
		Sync: SyncConfig{
			PollInterval:       getEnvAsDuration("SYNC_POLL_INTERVAL", 15*time.Minute),
			WalletConcurrency:  getEnvAsInt("SYNC_WALLET_CONCURRENCY", 30),
			LookupConcurrency:  getEnvAsInt("SYNC_LOOKUP_CONCURRENCY", 10),
			MaxBackfillPages:   getEnvAsInt("SYNC_MAX_BACKFILL_PAGES", 5000),
			MaxIncrementalPage: getEnvAsInt("SYNC_MAX_INCREMENTAL_PAGES", 100),
		},
		Cache: CacheConfig{
			MarketTagTTL: getEnvAsDuration("CACHE_MARKET_TAG_TTL", 24*time.Hour),
			StatsTTL:     getEnvAsDuration("CACHE_STATS_TTL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			FreeTierRPS:    getEnvAsInt("RATE_LIMIT_FREE_TIER_RPS", 10),
			PremiumTierRPS: getEnvAsInt("RATE_LIMIT_PREMIUM_TIER_RPS", 100),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
