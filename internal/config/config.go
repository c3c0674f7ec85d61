package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Export  ExportConfig  `yaml:"export"`
	Server  ServerConfig  `yaml:"server"`
	History HistoryConfig `yaml:"history"`
}

// APIConfig holds back-office API client configuration.
type APIConfig struct {
	BaseURL  string        `yaml:"base_url" envconfig:"API_BASE_URL" default:"http://127.0.0.1:9331"`
	APIKey   string        `yaml:"api_key" envconfig:"API_KEY"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"API_TIMEOUT" default:"30s"`
	PageSize int           `yaml:"page_size" envconfig:"API_PAGE_SIZE" default:"250"`
}

// ExportConfig holds export artifact configuration.
type ExportConfig struct {
	DownloadDir string `yaml:"download_dir" envconfig:"EXPORT_DOWNLOAD_DIR"`
}

// ServerConfig holds the dev backend's HTTP configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST" default:"127.0.0.1"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT" default:"9331"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"10m"`
}

// HistoryConfig holds export history persistence configuration.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"HISTORY_ENABLED" default:"true"`
	Path    string `yaml:"path" envconfig:"HISTORY_PATH"`
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

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in values that depend on the user's home directory.
func (c *Config) applyDefaults() {
	if c.Export.DownloadDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Export.DownloadDir = filepath.Join(home, "Downloads")
		} else {
			c.Export.DownloadDir = "."
		}
	}
	if c.History.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.History.Path = filepath.Join(home, ".freightdesk", "history.db")
		} else {
			c.History.Path = "history.db"
		}
	}
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.API.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
