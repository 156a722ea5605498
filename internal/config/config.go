// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultJWTSecret = "dev-secret-change-in-production"

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"
	LogLevel    zapcore.Level
	Location    *time.Location // week boundaries and filter ranges

	// Database
	DatabaseURL string
	AutoMigrate bool

	// Security
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	AllowedOrigins []string
	RateLimitRPM   int
	TrustProxy     bool // honor X-Forwarded-For / X-Real-IP; only behind a trusted proxy

	// Redis (FluView cache); empty disables caching
	RedisURL        string
	FluCacheTTL     time.Duration
	FluWarmInterval time.Duration

	// Delphi Epidata
	DelphiBaseURL string
	DelphiAPIKey  string
	DelphiTimeout time.Duration
	CovidBaseURL  string

	// Kafka report events; no brokers disables publishing
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		AutoMigrate: getEnvBool("AUTO_MIGRATE", true),

		JWTSecret:      getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:       getEnvDuration("TOKEN_TTL", 24*time.Hour),
		BcryptCost:     getEnvInt("BCRYPT_COST", 12),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 120),
		TrustProxy:     getEnvBool("TRUST_PROXY", false),

		RedisURL:        getEnv("REDIS_URL", ""),
		FluCacheTTL:     getEnvDuration("FLU_CACHE_TTL", time.Hour),
		FluWarmInterval: getEnvDuration("FLU_WARM_INTERVAL", 30*time.Minute),

		DelphiBaseURL: getEnv("DELPHI_BASE_URL", "https://api.delphi.cmu.edu/epidata/api.php"),
		DelphiAPIKey:  getEnv("DELPHI_API_KEY", ""),
		DelphiTimeout: getEnvDuration("DELPHI_TIMEOUT", 10*time.Second),
		CovidBaseURL:  getEnv("DELPHI_COVID_URL", "https://api.delphi.cmu.edu/epidata/covidcast/"),

		KafkaBrokers: getEnvList("KAFKA_BROKERS", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "report-events"),
	}

	loc, err := loadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	// Validate required fields in production
	if cfg.IsProduction() {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required in production")
		}
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewLogger builds the zap logger for the configured environment and level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if c.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(c.LogLevel)
	return zc.Build()
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") or plain seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
