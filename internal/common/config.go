// Package common provides shared utilities for FundFolio
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for FundFolio
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Ingest      IngestConfig  `toml:"ingest"`
	Logging     LoggingConfig `toml:"logging"`
	Auth        AuthConfig    `toml:"auth"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds local blob storage configuration.
type StorageConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Sheets  SheetsConfig  `toml:"sheets"`
	JSONBin JSONBinConfig `toml:"jsonbin"`
}

// SheetsConfig holds configuration for the published fund-sheet CSV sources.
// Sources are listed in merge priority order: base sheet first, then supplements.
type SheetsConfig struct {
	SourceURLs          []string `toml:"source_urls"`
	DefaultPortfolioURL string   `toml:"default_portfolio_url"`
	RateLimit           int      `toml:"rate_limit"`
	Timeout             string   `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *SheetsConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// JSONBinConfig holds configuration for the remote portfolio bin.
type JSONBinConfig struct {
	BaseURL   string `toml:"base_url"`
	BinID     string `toml:"bin_id"`
	MasterKey string `toml:"master_key"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *JSONBinConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// IngestConfig holds fund-catalog ingestion settings.
type IngestConfig struct {
	RefreshInterval string `toml:"refresh_interval"` // "0" disables the scheduler
	PersistDebounce string `toml:"persist_debounce"`
}

// GetRefreshInterval parses and returns the catalog refresh interval.
// Zero disables scheduled refresh.
func (c *IngestConfig) GetRefreshInterval() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return 0
	}
	return d
}

// GetPersistDebounce parses and returns the persistence quiescence window.
func (c *IngestConfig) GetPersistDebounce() time.Duration {
	d, err := time.ParseDuration(c.PersistDebounce)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// AuthConfig holds JWT bearer authentication configuration.
// An empty secret disables auth entirely (single-user deployment).
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"`
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// Enabled reports whether bearer auth is configured.
func (c *AuthConfig) Enabled() bool {
	return c.JWTSecret != ""
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data",
		},
		Clients: ClientsConfig{
			Sheets: SheetsConfig{
				SourceURLs: []string{
					"https://cdn.jsdelivr.net/gh/Roshan4665/personalportfolioanalyser/data/mutual_funds.csv",
					"https://cdn.jsdelivr.net/gh/Roshan4665/personalportfolioanalyser/data/mutual_funds_extra1.csv",
					"https://cdn.jsdelivr.net/gh/Roshan4665/personalportfolioanalyser/data/mutual_funds_extra2.csv",
				},
				DefaultPortfolioURL: "https://cdn.jsdelivr.net/gh/Roshan4665/personalportfolioanalyser/data/my_funds.json",
				RateLimit:           5,
				Timeout:             "30s",
			},
			JSONBin: JSONBinConfig{
				BaseURL: "https://api.jsonbin.io/v3",
				Timeout: "15s",
			},
		},
		Ingest: IngestConfig{
			RefreshInterval: "0",
			PersistDebounce: "2s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Auth: AuthConfig{
			TokenExpiry: "24h",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if len(config.Clients.Sheets.SourceURLs) == 0 {
		return nil, fmt.Errorf("at least one fund sheet source URL is required")
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FUNDFOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FUNDFOLIO_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FUNDFOLIO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FUNDFOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("FUNDFOLIO_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if urls := os.Getenv("FUNDFOLIO_SHEET_URLS"); urls != "" {
		parts := strings.Split(urls, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		config.Clients.Sheets.SourceURLs = parts
	}

	if v := os.Getenv("FUNDFOLIO_JSONBIN_BIN_ID"); v != "" {
		config.Clients.JSONBin.BinID = v
	}
	if v := os.Getenv("FUNDFOLIO_JSONBIN_MASTER_KEY"); v != "" {
		config.Clients.JSONBin.MasterKey = v
	}

	if v := os.Getenv("FUNDFOLIO_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("FUNDFOLIO_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
