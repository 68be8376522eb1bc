package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SecretConfig matches the structure of secrets/practice.yaml and live.yaml.
type SecretConfig struct {
	Venues struct {
		OANDA struct {
			AccountID string `yaml:"account_id"`
			APIKey    string `yaml:"api_key"`
		} `yaml:"oanda"`
		Alpaca struct {
			APIKey    string `yaml:"api_key"`
			SecretKey string `yaml:"secret_key"`
		} `yaml:"alpaca"`
	} `yaml:"venues"`
}

// LoadSecretConfig loads venue credentials from a separate yaml file.
// It returns an error if the file is missing: trading without keys is a
// misconfiguration, not something to limp through.
func LoadSecretConfig(path string) (*SecretConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret config: %w", err)
	}

	var cfg SecretConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse secret config: %w", err)
	}

	return &cfg, nil
}

// Apply copies non-empty secrets over the main config.
func (s *SecretConfig) Apply(cfg *Config) {
	if s.Venues.OANDA.AccountID != "" {
		cfg.Venues.OANDA.AccountID = s.Venues.OANDA.AccountID
	}
	if s.Venues.OANDA.APIKey != "" {
		cfg.Venues.OANDA.APIKey = s.Venues.OANDA.APIKey
	}
	if s.Venues.Alpaca.APIKey != "" {
		cfg.Venues.Alpaca.APIKey = s.Venues.Alpaca.APIKey
	}
	if s.Venues.Alpaca.SecretKey != "" {
		cfg.Venues.Alpaca.SecretKey = s.Venues.Alpaca.SecretKey
	}
}
