package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapu/rutube-stats-go/internal/constants"
	"github.com/kapu/rutube-stats-go/pkg/errors"
)

type Config struct {
	Collector CollectorConfig
	Rutube    RutubeConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Logging   LoggingConfig
}

type CollectorConfig struct {
	ChannelID int64
	PageSize  int
	Delay     time.Duration
	OutputDir string
}

type RutubeConfig struct {
	BaseURL   string
	UserAgent string
}

type DatabaseConfig struct {
	Driver      string
	DSN         string
	AutoMigrate bool
}

// Enabled reports whether a database sink target was configured.
func (d DatabaseConfig) Enabled() bool {
	return d.DSN != ""
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	SnapshotTTL time.Duration
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Collector: CollectorConfig{
			ChannelID: getEnvInt64("RUTUBE_CHANNEL_ID", constants.CollectorDefaults.ChannelID),
			PageSize:  getEnvInt("RUTUBE_PAGE_SIZE", constants.CollectorDefaults.PageSize),
			Delay:     time.Duration(getEnvInt("COLLECT_DELAY_SECONDS", int(constants.CollectorDefaults.Delay/time.Second))) * time.Second,
			OutputDir: getEnv("OUTPUT_DIR", constants.CollectorDefaults.OutputDir),
		},
		Rutube: RutubeConfig{
			BaseURL:   strings.TrimRight(getEnv("RUTUBE_API_BASE_URL", constants.APIConfig.RutubeBaseURL), "/"),
			UserAgent: getEnv("RUTUBE_USER_AGENT", constants.APIConfig.UserAgent),
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:         firstEnv("NEON_DSN", "DATABASE_URL"),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			SnapshotTTL: time.Duration(getEnvInt("REDIS_SNAPSHOT_TTL_HOURS", 168)) * time.Hour,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Collector.ChannelID <= 0 {
		return errors.NewValidationError("RUTUBE_CHANNEL_ID must be positive", "RUTUBE_CHANNEL_ID", c.Collector.ChannelID)
	}
	if c.Collector.PageSize <= 0 {
		return errors.NewValidationError("RUTUBE_PAGE_SIZE must be positive", "RUTUBE_PAGE_SIZE", c.Collector.PageSize)
	}
	if c.Collector.Delay < 0 {
		return errors.NewValidationError("COLLECT_DELAY_SECONDS must not be negative", "COLLECT_DELAY_SECONDS", c.Collector.Delay)
	}
	if c.Collector.OutputDir == "" {
		return errors.NewValidationError("OUTPUT_DIR is required", "OUTPUT_DIR", c.Collector.OutputDir)
	}
	if c.Rutube.BaseURL == "" {
		return errors.NewValidationError("RUTUBE_API_BASE_URL is required", "RUTUBE_API_BASE_URL", c.Rutube.BaseURL)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.NewValidationError("DB_DRIVER must be postgres or sqlite", "DB_DRIVER", c.Database.Driver)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
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
