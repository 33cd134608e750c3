package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration of the console.
type Config struct {
	API      APIConfig  `yaml:"api"`
	Poll     PollConfig `yaml:"poll"`
	PageSize int        `yaml:"page_size"`
	LogLevel string     `yaml:"log_level"`

	// ConfigPath is the file the config was loaded from (not serialized)
	ConfigPath string `yaml:"-"`
}

// APIConfig describes how to reach the REST backend.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// PollConfig holds refresh intervals for live data.
type PollConfig struct {
	Telemetry time.Duration `yaml:"telemetry"`
	Report    time.Duration `yaml:"report"`
	// MaxBackoff caps the delay after repeated poll failures.
	MaxBackoff time.Duration `yaml:"max_backoff"`
	// Stagger spaces out the first run of each polling job.
	Stagger time.Duration `yaml:"stagger"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "http://localhost:3001/api",
			Timeout:           15 * time.Second,
			RequestsPerSecond: 20,
			Burst:             10,
		},
		Poll: PollConfig{
			Telemetry:  5 * time.Second,
			Report:     30 * time.Second,
			MaxBackoff: 2 * time.Minute,
			Stagger:    250 * time.Millisecond,
		},
		PageSize: 10,
		LogLevel: "info",
	}
}

// Load reads the config file at path on top of the defaults. A missing file
// is not an error. Environment overrides (including a .env file in the
// working directory) are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg.ConfigPath = path
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MIKRODESK_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("MIKRODESK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MIKRODESK_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PageSize = n
		}
	}
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.Poll.Telemetry <= 0 || c.Poll.Report <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	return nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
