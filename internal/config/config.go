package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Worker  WorkerConfig  `yaml:"worker"`
	Probe   ProbeConfig   `yaml:"probe"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT" default:"9614"`
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
}

// StorageConfig holds check persistence configuration.
type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path" envconfig:"STORAGE_SQLITE_PATH" default:"/data/vidgate.db"`
}

// WorkerConfig holds worker pool configuration.
type WorkerConfig struct {
	Count        int           `yaml:"count" envconfig:"WORKER_COUNT" default:"2"`
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"WORKER_POLL_INTERVAL" default:"2s"`
	MaxRetries   int           `yaml:"max_retries" envconfig:"WORKER_MAX_RETRIES" default:"3"`
}

// ProbeConfig holds source probe configuration.
type ProbeConfig struct {
	HeadTimeout  time.Duration `yaml:"head_timeout" envconfig:"PROBE_HEAD_TIMEOUT" default:"15s"`
	RangeTimeout time.Duration `yaml:"range_timeout" envconfig:"PROBE_RANGE_TIMEOUT" default:"15s"`
	RangeBytes   int           `yaml:"range_bytes" envconfig:"PROBE_RANGE_BYTES" default:"2048"`
	SniffBudget  int           `yaml:"sniff_budget" envconfig:"PROBE_SNIFF_BUDGET" default:"8192"`
	UserAgent    string        `yaml:"user_agent" envconfig:"PROBE_USER_AGENT" default:"vidgate/1.0"`

	// Outbound rate limiting across all probes.
	RequestsPerSecond float64 `yaml:"requests_per_second" envconfig:"PROBE_REQUESTS_PER_SECOND" default:"10"`
	Burst             int     `yaml:"burst" envconfig:"PROBE_BURST" default:"20"`

	// Optional DNS preflight before the HEAD probe.
	DNSPreflight bool          `yaml:"dns_preflight" envconfig:"PROBE_DNS_PREFLIGHT" default:"false"`
	DNSResolvers []string      `yaml:"dns_resolvers" envconfig:"PROBE_DNS_RESOLVERS"`
	DNSTimeout   time.Duration `yaml:"dns_timeout" envconfig:"PROBE_DNS_TIMEOUT" default:"5s"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Server.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	if c.Storage.SQLitePath == "" {
		return fmt.Errorf("STORAGE_SQLITE_PATH is required")
	}
	if c.Probe.RangeBytes <= 0 {
		return fmt.Errorf("PROBE_RANGE_BYTES must be positive")
	}
	if c.Probe.SniffBudget < c.Probe.RangeBytes {
		return fmt.Errorf("PROBE_SNIFF_BUDGET must be at least PROBE_RANGE_BYTES")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
