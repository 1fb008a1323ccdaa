// Package config handles application configuration loading, validation,
// and defaults. Configuration is read from YAML files; a missing file
// yields the defaults unchanged.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netscan-tools/netscan/internal/errors"
)

const (
	configDirMode  = 0o755
	configFileMode = 0o644

	maxPort = 65535
)

// Duration wraps time.Duration so YAML configs can say "5s" or "2m".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalYAML renders the duration in time.Duration string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts either a duration string or integer nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return errors.NewConfigError(errors.CodeConfiguration,
			fmt.Sprintf("invalid duration value at line %d", value.Line))
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.NewConfigError(errors.CodeConfiguration,
			fmt.Sprintf("invalid duration %q", s))
	}
	*d = Duration(parsed)
	return nil
}

// Config is the complete application configuration.
type Config struct {
	// Scanning configuration
	Scanning ScanningConfig `yaml:"scanning" json:"scanning"`

	// Discovery configuration
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery"`

	// API server configuration
	API APIConfig `yaml:"api" json:"api"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Scheduled scans (serve mode only)
	Schedules []ScheduleConfig `yaml:"schedules,omitempty" json:"schedules,omitempty"`
}

// ScanningConfig holds port scan defaults.
type ScanningConfig struct {
	// Per-probe connection timeout
	Timeout Duration `yaml:"timeout" json:"timeout"`

	// Maximum in-flight probes per scan
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// Default port specification when none is given
	DefaultPorts string `yaml:"default_ports" json:"default_ports"`

	// Overall deadline per scan, zero disables
	Deadline Duration `yaml:"deadline" json:"deadline"`

	// Probe launches per second, zero disables limiting
	RateLimit int `yaml:"rate_limit" json:"rate_limit"`
}

// DiscoveryConfig holds subnet sweep defaults.
type DiscoveryConfig struct {
	// Ports probed per host to decide liveness
	CheckPorts []int `yaml:"check_ports" json:"check_ports"`

	// Per-probe timeout during sweeps
	Timeout Duration `yaml:"timeout" json:"timeout"`

	// Concurrently swept hosts
	Workers int `yaml:"workers" json:"workers"`

	// Also check liveness with the system ping tool
	UsePing bool `yaml:"use_ping" json:"use_ping"`

	// SNMP community for sysName enrichment, empty disables
	SNMPCommunity string `yaml:"snmp_community" json:"snmp_community"`
}

// APIConfig holds API server settings for serve mode.
type APIConfig struct {
	// Enable the API server
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Listen address
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`

	// Listen port
	Port int `yaml:"port" json:"port"`

	// Bcrypt hashes of accepted API keys; empty disables auth
	APIKeyHashes []string `yaml:"api_key_hashes" json:"api_key_hashes"`

	// Allow cross-origin requests
	CORSEnabled bool `yaml:"cors_enabled" json:"cors_enabled"`

	// Per-request timeout
	RequestTimeout Duration `yaml:"request_timeout" json:"request_timeout"`

	// Graceful shutdown timeout
	ShutdownTimeout Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `yaml:"level" json:"level"`

	// Log format: text or json
	Format string `yaml:"format" json:"format"`

	// Output destination: stderr, stdout, or a file path
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	// Enable metric collection
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Expose Prometheus metrics on the API server
	Prometheus bool `yaml:"prometheus" json:"prometheus"`
}

// ScheduleConfig describes one recurring scan in serve mode.
type ScheduleConfig struct {
	// Name identifies the schedule in logs and job listings
	Name string `yaml:"name" json:"name"`

	// Cron is a standard five-field cron expression
	Cron string `yaml:"cron" json:"cron"`

	// Host to scan
	Host string `yaml:"host" json:"host"`

	// Ports specification
	Ports string `yaml:"ports" json:"ports"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Scanning: ScanningConfig{
			Timeout:      Duration(2 * time.Second),
			Concurrency:  100,
			DefaultPorts: "common",
			Deadline:     0,
			RateLimit:    0,
		},
		Discovery: DiscoveryConfig{
			CheckPorts: []int{80, 443, 22, 445},
			Timeout:    Duration(1 * time.Second),
			Workers:    50,
			UsePing:    false,
		},
		API: APIConfig{
			Enabled:         false,
			ListenAddr:      "127.0.0.1",
			Port:            8440,
			CORSEnabled:     false,
			RequestTimeout:  Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			Prometheus: false,
		},
	}
}

// Load reads configuration from a YAML file, applying it over the
// defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError(errors.CodeConfiguration,
			fmt.Sprintf("failed to read config file: %v", err))
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.NewConfigError(errors.CodeConfiguration,
			fmt.Sprintf("failed to parse YAML config: %v", err))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save writes the configuration to a YAML file, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirMode); err != nil {
		return errors.NewConfigError(errors.CodeConfiguration,
			fmt.Sprintf("failed to create config directory: %v", err))
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.NewConfigError(errors.CodeConfiguration,
			fmt.Sprintf("failed to marshal config: %v", err))
	}

	if err := os.WriteFile(path, data, configFileMode); err != nil {
		return errors.NewConfigError(errors.CodeConfiguration,
			fmt.Sprintf("failed to write config file: %v", err))
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Scanning.Timeout <= 0 {
		return errors.NewConfigFieldError(errors.CodeConfiguration,
			"scan timeout must be positive", "scanning.timeout", c.Scanning.Timeout)
	}
	if c.Scanning.Concurrency <= 0 {
		return errors.NewConfigFieldError(errors.CodeConfiguration,
			"scan concurrency must be positive", "scanning.concurrency", c.Scanning.Concurrency)
	}
	if c.Scanning.RateLimit < 0 {
		return errors.NewConfigFieldError(errors.CodeConfiguration,
			"rate limit cannot be negative", "scanning.rate_limit", c.Scanning.RateLimit)
	}

	if c.Discovery.Workers <= 0 {
		return errors.NewConfigFieldError(errors.CodeConfiguration,
			"discovery workers must be positive", "discovery.workers", c.Discovery.Workers)
	}
	for _, port := range c.Discovery.CheckPorts {
		if port < 1 || port > maxPort {
			return errors.NewConfigFieldError(errors.CodeConfiguration,
				"discovery check port out of range", "discovery.check_ports", port)
		}
	}

	if c.API.Enabled {
		if c.API.Port <= 0 || c.API.Port > maxPort {
			return errors.NewConfigFieldError(errors.CodeConfiguration,
				"API port must be between 1 and 65535", "api.port", c.API.Port)
		}
		if c.API.ListenAddr == "" {
			return errors.NewConfigFieldError(errors.CodeConfiguration,
				"API listen address is required when API is enabled", "api.listen_addr", "")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return errors.NewConfigFieldError(errors.CodeConfiguration,
			"invalid log level", "logging.level", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return errors.NewConfigFieldError(errors.CodeConfiguration,
			"invalid log format", "logging.format", c.Logging.Format)
	}

	for i, schedule := range c.Schedules {
		if schedule.Name == "" {
			return errors.NewConfigFieldError(errors.CodeConfiguration,
				"schedule name is required", fmt.Sprintf("schedules[%d].name", i), "")
		}
		if schedule.Cron == "" {
			return errors.NewConfigFieldError(errors.CodeConfiguration,
				"schedule cron expression is required", fmt.Sprintf("schedules[%d].cron", i), "")
		}
		if schedule.Host == "" {
			return errors.NewConfigFieldError(errors.CodeConfiguration,
				"schedule host is required", fmt.Sprintf("schedules[%d].host", i), "")
		}
	}

	return nil
}

// GetAPIAddress returns the full API listen address.
func (c *Config) GetAPIAddress() string {
	return fmt.Sprintf("%s:%d", c.API.ListenAddr, c.API.Port)
}

// IsAPIEnabled reports whether the API server should start.
func (c *Config) IsAPIEnabled() bool {
	return c.API.Enabled
}
