package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
app:
  name: crypto-stock
trading:
  mode: PAPER
venues:
  oanda:
    rest_url: https://api-fxpractice.oanda.com
    stream_url: wss://stream-fxpractice.oanda.com
    account_id: "101-004-1234567-001"
synthetics:
  XBTEUR:
    crypto: XBTUSD
    fx: EUR_USD
stock:
  symbol: IBIT
  asset_held: 10000
  shares_outstanding: 1000000
`

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Venues.BitMEX.PageSize)
	assert.Equal(t, 2.0, cfg.Venues.BitMEX.RateLimitPerSec)
	assert.Equal(t, 60, cfg.Stock.PollIntervalSec)
	assert.Equal(t, "XBTUSD", cfg.Stock.AssetSymbol)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("OANDA_API_KEY", "env-key")
	t.Setenv("OANDA_ACCOUNT_ID", "env-account")

	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Venues.OANDA.APIKey)
	assert.Equal(t, "env-account", cfg.Venues.OANDA.AccountID)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "bad trading mode",
			yaml: "trading:\n  mode: YOLO\n",
		},
		{
			name: "http stream url",
			yaml: "venues:\n  oanda:\n    stream_url: https://stream-fxpractice.oanda.com\n",
		},
		{
			name: "synthetic missing leg",
			yaml: "synthetics:\n  XBTEUR:\n    crypto: XBTUSD\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
