package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	sgerrors "github.com/vnykmshr/slidegate/pkg/common/errors"
	"github.com/vnykmshr/slidegate/pkg/common/validation"
)

// Defaults mirror the original demo driver.
const (
	DefaultWindow         = 5 * time.Second
	DefaultCapacity       = 10
	DefaultURL            = "https://ismp.crpt.ru/api/v3/lk/documents/create"
	DefaultTimeout        = 10 * time.Second
	DefaultWorkers        = 20
	DefaultReportSchedule = "@every 1s"
	DefaultMetricsAddress = ":9090"
)

// Config holds all configuration for slidegate.
type Config struct {
	Limiter LimiterConfig `yaml:"limiter"`
	Client  ClientConfig  `yaml:"client"`
	Demo    DemoConfig    `yaml:"demo"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// LimiterConfig sizes the sliding window.
type LimiterConfig struct {
	Window   time.Duration `yaml:"window"`
	Capacity int           `yaml:"capacity"`
}

// ClientConfig configures the document API client.
type ClientConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// DemoConfig drives the run command.
type DemoConfig struct {
	Workers        int    `yaml:"workers"`
	ReportSchedule string `yaml:"report_schedule"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Limiter: LimiterConfig{
			Window:   DefaultWindow,
			Capacity: DefaultCapacity,
		},
		Client: ClientConfig{
			URL:     DefaultURL,
			Timeout: DefaultTimeout,
		},
		Demo: DemoConfig{
			Workers:        DefaultWorkers,
			ReportSchedule: DefaultReportSchedule,
		},
		Metrics: MetricsConfig{
			Address: DefaultMetricsAddress,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromFile merges the YAML file at path into c.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(validation.ValidatePositiveDuration("config", "limiter.window", c.Limiter.Window))
	add(validation.ValidatePositive("config", "limiter.capacity", c.Limiter.Capacity))
	add(validation.ValidateHTTPURL("config", "client.url", c.Client.URL))
	add(validation.ValidatePositiveDuration("config", "client.timeout", c.Client.Timeout))
	add(validation.ValidatePositive("config", "demo.workers", c.Demo.Workers))
	add(validation.ValidateNotEmpty("config", "demo.report_schedule", c.Demo.ReportSchedule))
	if c.Metrics.Enabled {
		add(validation.ValidateNotEmpty("config", "metrics.address", c.Metrics.Address))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		add(sgerrors.NewValidationError("config", "logging.level", c.Logging.Level, "unknown level").
			WithHint("use debug, info, warn or error"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		add(sgerrors.NewValidationError("config", "logging.format", c.Logging.Format, "unknown format").
			WithHint("use console or json"))
	}

	return errors.Join(errs...)
}

// YAML renders the configuration with the token redacted.
func (c *Config) YAML() ([]byte, error) {
	out := *c
	if out.Client.Token != "" {
		out.Client.Token = "********"
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
