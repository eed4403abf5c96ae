package app

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage backend selectors.
const (
	StorageFile  = "file"
	StorageRedis = "redis"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"BILLFOLD_ENV" default:"development"`
	AppAddr           string        `envconfig:"BILLFOLD_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"BILLFOLD_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"BILLFOLD_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"BILLFOLD_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"BILLFOLD_LOG_FORMAT" default:"pretty"`

	StorageBackend  string `envconfig:"BILLFOLD_STORAGE" default:"file"`
	StoragePath     string `envconfig:"BILLFOLD_STORAGE_PATH" default:"billfold-invoices.json"`
	StorageMaxBytes int    `envconfig:"BILLFOLD_STORAGE_QUOTA" default:"5242880"`

	RedisAddr string `envconfig:"BILLFOLD_REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisKey  string `envconfig:"BILLFOLD_REDIS_KEY" default:"billfold:invoices"`

	CurrencySymbol string `envconfig:"BILLFOLD_CURRENCY" default:"₦"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.StorageBackend != StorageFile && cfg.StorageBackend != StorageRedis {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
