package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/mahdiidarabi/wallet-signature-verify/pkg/walletverify"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WALLETVERIFY_"

// Replay backends.
const (
	ReplayNone   = "none"
	ReplayMemory = "memory"
	ReplayRedis  = "redis"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Logging
	LogLevel string

	// Wallets enabled for verification. Empty means all.
	EnabledWallets []walletverify.WalletType

	// Server configuration
	ServerAddr string

	// Replay protection
	ReplayBackend string
	RedisURL      string
	ReplayTTL     time.Duration

	// Batch verification workers (0 = runtime.NumCPU())
	BatchWorkers int
}

// Default returns the configuration used when no variables are set.
func Default() *Config {
	return &Config{
		LogLevel:      "info",
		ServerAddr:    ":8080",
		ReplayBackend: ReplayNone,
		ReplayTTL:     walletverify.DefaultReplayTTL,
	}
}

// Load reads configuration from environment variables and validates it.
// All problems are reported together.
func Load() (*Config, error) {
	cfg := Default()
	var errs []error

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", cfg.ServerAddr)
	cfg.ReplayBackend = strings.ToLower(getEnvOrDefault("REPLAY_BACKEND", cfg.ReplayBackend))
	cfg.RedisURL = os.Getenv(EnvPrefix + "REDIS_URL")

	if names := os.Getenv(EnvPrefix + "ENABLED_WALLETS"); names != "" {
		types, err := walletverify.ParseWalletTypes(strings.Split(names, ","))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sENABLED_WALLETS: %w", EnvPrefix, err))
		} else {
			cfg.EnabledWallets = types
		}
	}

	ttl, err := parseDuration("REPLAY_TTL", cfg.ReplayTTL.String())
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ReplayTTL = ttl
	}

	workers, err := parseInt("BATCH_WORKERS", 0)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.BatchWorkers = workers
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.LogLevel))
	}

	if c.ServerAddr == "" {
		errs = append(errs, fmt.Errorf("ServerAddr is required"))
	}

	switch c.ReplayBackend {
	case ReplayNone, ReplayMemory:
	case ReplayRedis:
		if c.RedisURL == "" {
			errs = append(errs, fmt.Errorf("%sREDIS_URL is required when the replay backend is redis", EnvPrefix))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown replay backend %q (expected none, memory or redis)", c.ReplayBackend))
	}

	if c.ReplayTTL <= 0 {
		errs = append(errs, fmt.Errorf("ReplayTTL must be positive"))
	}

	if c.BatchWorkers < 0 {
		errs = append(errs, fmt.Errorf("BatchWorkers cannot be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}
	return nil
}

// Level returns the parsed log level, or info when it does not parse.
func (c *Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// getEnvOrDefault returns the prefixed environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s%s: invalid duration %q: %w", EnvPrefix, key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s%s: invalid integer %q: %w", EnvPrefix, key, value, err)
	}
	return result, nil
}
