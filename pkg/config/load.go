package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SLIDEGATE_"

// Load builds the effective configuration.
// Precedence: environment (including .env) > config file > defaults.
// An empty path skips the file. The result is not validated, so callers can
// apply command line overrides before calling Validate.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load(".env")

	cfg := Default()

	if path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv applies SLIDEGATE_* overrides to c.
func (c *Config) LoadFromEnv() error {
	if err := envDuration("WINDOW", &c.Limiter.Window); err != nil {
		return err
	}
	if err := envInt("CAPACITY", &c.Limiter.Capacity); err != nil {
		return err
	}
	envString("URL", &c.Client.URL)
	envString("TOKEN", &c.Client.Token)
	if err := envDuration("TIMEOUT", &c.Client.Timeout); err != nil {
		return err
	}
	if err := envInt("WORKERS", &c.Demo.Workers); err != nil {
		return err
	}
	envString("LOG_LEVEL", &c.Logging.Level)
	if v, ok := os.LookupEnv(EnvPrefix + "METRICS_ADDRESS"); ok && v != "" {
		c.Metrics.Address = v
		c.Metrics.Enabled = true
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, v, err)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, v, err)
	}
	*dst = d
	return nil
}
