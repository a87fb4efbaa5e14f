package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the triage tool's configuration.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Reporting ReportingConfig `yaml:"reporting"`
	Score     ScoreConfig     `yaml:"score"`
}

// LoggingConfig contains structured-logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// ReportingConfig contains output settings for group and summary files.
type ReportingConfig struct {
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format"`
}

// ScoreConfig contains ground-truth scoring settings.
type ScoreConfig struct {
	// Percentage selects whether purity/inverse-purity/F-measure are
	// reported as rounded 0-100 integers instead of raw 0..1 ratios.
	Percentage bool `yaml:"percentage"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9091",
		},
		Reporting: ReportingConfig{
			OutputDir: "./groups",
			Format:    "text",
		},
		Score: ScoreConfig{
			Percentage: true,
		},
	}
}

// Load loads configuration from a YAML file. An empty path means
// config.yaml in the working directory; when the file is absent, defaults
// are returned. The CHAOS_TRIAGE_METRICS_ADDR
// environment variable, when set, overrides metrics.addr from the file,
// taking priority the same way the upstream tooling lets PROMETHEUS_URL
// override a discovered endpoint.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if addr := os.Getenv("CHAOS_TRIAGE_METRICS_ADDR"); addr != "" {
		cfg.Metrics.Addr = addr
	}
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}

	if c.Reporting.OutputDir == "" {
		return fmt.Errorf("reporting.output_dir is required")
	}

	switch c.Reporting.Format {
	case "text", "json":
	default:
		return fmt.Errorf("reporting.format must be text or json")
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics.enabled is true")
	}

	return nil
}
