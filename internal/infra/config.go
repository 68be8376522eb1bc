package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SyntheticConfig names the two legs that replicate one synthetic pair.
type SyntheticConfig struct {
	Crypto string `yaml:"crypto"`
	FX     string `yaml:"fx"`
}

// Config holds the full application configuration.
// Secrets may be overridden by environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Trading struct {
		Mode string `yaml:"mode"` // "PAPER" or "LIVE"
	} `yaml:"trading"`

	Venues struct {
		BitMEX struct {
			PageSize        int     `yaml:"page_size"`
			RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
		} `yaml:"bitmex"`
		OANDA struct {
			RestURL   string `yaml:"rest_url"`
			StreamURL string `yaml:"stream_url"`
			AccountID string `yaml:"account_id"`
			APIKey    string `yaml:"api_key"`
		} `yaml:"oanda"`
		Alpaca struct {
			TradingURL string `yaml:"trading_url"`
			DataURL    string `yaml:"data_url"`
			StreamURL  string `yaml:"stream_url"`
			APIKey     string `yaml:"api_key"`
			SecretKey  string `yaml:"secret_key"`
		} `yaml:"alpaca"`
	} `yaml:"venues"`

	Synthetics map[string]SyntheticConfig `yaml:"synthetics"`

	Stock struct {
		Symbol            string  `yaml:"symbol"`
		AssetSymbol       string  `yaml:"asset_symbol"`
		AssetHeld         float64 `yaml:"asset_held"`
		SharesOutstanding int64   `yaml:"shares_outstanding"`
		PollIntervalSec   int     `yaml:"poll_interval_sec"`
	} `yaml:"stock"`

	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies environment
// overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Venues.BitMEX.PageSize == 0 {
		c.Venues.BitMEX.PageSize = 500
	}
	if c.Venues.BitMEX.RateLimitPerSec == 0 {
		c.Venues.BitMEX.RateLimitPerSec = 2 // one page every 500ms
	}
	if c.Trading.Mode == "" {
		c.Trading.Mode = "PAPER"
	}
	if c.Stock.PollIntervalSec == 0 {
		c.Stock.PollIntervalSec = 60
	}
	if c.Stock.AssetSymbol == "" {
		c.Stock.AssetSymbol = "XBTUSD"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Venues.OANDA.StreamURL != "" && !isWSURL(c.Venues.OANDA.StreamURL) {
		return fmt.Errorf("invalid OANDA stream URL: %s", c.Venues.OANDA.StreamURL)
	}
	if c.Venues.Alpaca.StreamURL != "" && !isWSURL(c.Venues.Alpaca.StreamURL) {
		return fmt.Errorf("invalid Alpaca stream URL: %s", c.Venues.Alpaca.StreamURL)
	}
	if c.Venues.BitMEX.PageSize < 1 {
		return fmt.Errorf("BitMEX page size must be positive")
	}

	for name, s := range c.Synthetics {
		if s.Crypto == "" || s.FX == "" {
			return fmt.Errorf("synthetic %s must name both a crypto and an fx leg", name)
		}
	}

	mode := strings.ToUpper(c.Trading.Mode)
	if mode != "PAPER" && mode != "LIVE" {
		return fmt.Errorf("unknown trading mode: %s", c.Trading.Mode)
	}

	return nil
}

func isWSURL(s string) bool {
	return strings.HasPrefix(s, "ws://") || strings.HasPrefix(s, "wss://")
}

// overrideWithEnv applies environment variables over file values.
// Environment always wins so keys never have to live in the config file.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("OANDA_API_KEY"); key != "" {
		cfg.Venues.OANDA.APIKey = key
	}
	if id := os.Getenv("OANDA_ACCOUNT_ID"); id != "" {
		cfg.Venues.OANDA.AccountID = id
	}
	if url := os.Getenv("OANDA_API_PRACTICE_URL"); url != "" {
		cfg.Venues.OANDA.RestURL = url
	}
	if key := os.Getenv("ALPACA_API_KEY"); key != "" {
		cfg.Venues.Alpaca.APIKey = key
	}
	if secret := os.Getenv("ALPACA_API_SECRET"); secret != "" {
		cfg.Venues.Alpaca.SecretKey = secret
	}
}
