// Package common provides shared utilities for Fairval
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Fairval
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Cache       CacheConfig     `toml:"cache"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Valuation   ValuationConfig `toml:"valuation"`
	Signals     SignalsConfig   `toml:"signals"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects the second-tier cache backend.
// Backend is "memory" (process lifetime only) or "surrealdb".
type StorageConfig struct {
	Backend   string `toml:"backend"`
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ClientsConfig holds upstream feed configuration
type ClientsConfig struct {
	EDGAR EDGARConfig `toml:"edgar"`
	EODHD EODHDConfig `toml:"eodhd"`
}

// EDGARConfig holds SEC EDGAR configuration.
// The SEC requires a descriptive User-Agent with contact details.
type EDGARConfig struct {
	DataURL   string `toml:"data_url"`
	WWWURL    string `toml:"www_url"`
	UserAgent string `toml:"user_agent"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EDGARConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Exchange  string `toml:"exchange"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// CacheConfig holds TTLs for the process caches and the per-call upstream timeout
type CacheConfig struct {
	DirectoryTTL    string `toml:"directory_ttl"`
	PriceTTL        string `toml:"price_ttl"`
	UpstreamTimeout string `toml:"upstream_timeout"`
	PriceHistory    string `toml:"price_history"`
}

// GetDirectoryTTL returns the company directory TTL
func (c *CacheConfig) GetDirectoryTTL() time.Duration {
	return parseDuration(c.DirectoryTTL, FreshnessDirectory)
}

// GetPriceTTL returns the price history TTL
func (c *CacheConfig) GetPriceTTL() time.Duration {
	return parseDuration(c.PriceTTL, FreshnessPrices)
}

// GetUpstreamTimeout returns the bound applied to each upstream call
func (c *CacheConfig) GetUpstreamTimeout() time.Duration {
	return parseDuration(c.UpstreamTimeout, DefaultUpstreamTimeout)
}

// GetPriceHistory returns how far back daily bars are requested
func (c *CacheConfig) GetPriceHistory() time.Duration {
	return parseDuration(c.PriceHistory, 5*365*24*time.Hour)
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled          bool   `toml:"enabled"`
	DirectoryRefresh string `toml:"directory_refresh"` // standard 5-field cron expression
	WarmOnStart      bool   `toml:"warm_on_start"`
}

// ValuationConfig exposes the composite blending constants for calibration.
// Zero values leave the engine default in place.
type ValuationConfig struct {
	RiskFreeRate          float64 `toml:"risk_free_rate"`
	EquityRiskPremium     float64 `toml:"equity_risk_premium"`
	TerminalGrowth        float64 `toml:"terminal_growth"`
	CashflowWeight        float64 `toml:"cashflow_weight"`
	RelativeWeight        float64 `toml:"relative_weight"`
	AnalystWeight         float64 `toml:"analyst_weight"`
	MedianAnchorWeight    float64 `toml:"median_anchor_weight"`
	PriceAnchorBase       float64 `toml:"price_anchor_base"`
	PriceAnchorCap        float64 `toml:"price_anchor_cap"`
	ClampLow              float64 `toml:"clamp_low"`
	ClampHigh             float64 `toml:"clamp_high"`
	TerminalPE            float64 `toml:"terminal_pe"`
	TerminalPFCF          float64 `toml:"terminal_pfcf"`
	ReverseYears          int     `toml:"reverse_years"`
	RegimeThreshold       float64 `toml:"regime_threshold"`
	RegimeDamping         float64 `toml:"regime_damping"`
	RegimeBoost           float64 `toml:"regime_boost"`
	DefaultTerminalMargin float64 `toml:"default_terminal_margin"`

	HaircutPS     float64            `toml:"haircut_ps"`
	HaircutPE     float64            `toml:"haircut_pe"`
	HaircutPB     float64            `toml:"haircut_pb"`
	MethodWeights map[string]float64 `toml:"method_weights"`
}

// SignalsConfig holds signal engine windows
type SignalsConfig struct {
	MinBars       int `toml:"min_bars"`
	StdDevWindow  int `toml:"stddev_window"`
	VWMAWindow    int `toml:"vwma_window"`
	SlopeLookback int `toml:"slope_lookback"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
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
			Backend:   "memory",
			Address:   "ws://localhost:8000/rpc",
			Namespace: "fairval",
			Database:  "cache",
			Username:  "root",
			Password:  "root",
		},
		Clients: ClientsConfig{
			EDGAR: EDGARConfig{
				DataURL:   "https://data.sec.gov",
				WWWURL:    "https://www.sec.gov",
				UserAgent: "fairval research admin@example.com",
				RateLimit: 10,
				Timeout:   "30s",
			},
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				Exchange:  "US",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Cache: CacheConfig{
			DirectoryTTL:    "24h",
			PriceTTL:        "6h",
			UpstreamTimeout: "12s",
			PriceHistory:    "43800h",
		},
		Scheduler: SchedulerConfig{
			Enabled:          true,
			DirectoryRefresh: "30 5 * * *",
			WarmOnStart:      true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Outputs:  []string{"console"},
			FilePath: "./logs/fairval.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
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

	config.Storage.Backend = strings.ToLower(strings.TrimSpace(config.Storage.Backend))
	if config.Storage.Backend == "" {
		config.Storage.Backend = "memory"
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FAIRVAL_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FAIRVAL_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FAIRVAL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FAIRVAL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("FAIRVAL_STORAGE_BACKEND"); v != "" {
		config.Storage.Backend = v
	}
	if v := os.Getenv("FAIRVAL_STORAGE_ADDRESS"); v != "" {
		config.Storage.Address = v
	}
	if v := os.Getenv("FAIRVAL_STORAGE_USERNAME"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("FAIRVAL_STORAGE_PASSWORD"); v != "" {
		config.Storage.Password = v
	}

	for _, name := range []string{"EODHD_API_KEY", "FAIRVAL_EODHD_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.EODHD.APIKey = v
			break
		}
	}
	if v := os.Getenv("FAIRVAL_EODHD_EXCHANGE"); v != "" {
		config.Clients.EODHD.Exchange = strings.ToUpper(v)
	}

	for _, name := range []string{"SEC_USER_AGENT", "FAIRVAL_SEC_USER_AGENT"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.EDGAR.UserAgent = v
			break
		}
	}

	if v := os.Getenv("FAIRVAL_UPSTREAM_TIMEOUT"); v != "" {
		config.Cache.UpstreamTimeout = v
	}
	if v := os.Getenv("FAIRVAL_DIRECTORY_REFRESH"); v != "" {
		config.Scheduler.DirectoryRefresh = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ValidateRequired returns the names of settings that must be supplied
// before upstream feeds can be reached.
func (c *Config) ValidateRequired() []string {
	var missing []string
	if c.Clients.EODHD.APIKey == "" {
		missing = append(missing, "clients.eodhd.api_key")
	}
	if strings.TrimSpace(c.Clients.EDGAR.UserAgent) == "" {
		missing = append(missing, "clients.edgar.user_agent")
	}
	return missing
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
