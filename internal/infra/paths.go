package infra

import (
	"os"
	"path/filepath"
)

// ResolveConfigPath finds the config file, preferring an explicit
// CRYPTO_STOCK_CONFIG path, then a local _workspace directory (dev mode),
// then the working directory.
func ResolveConfigPath() string {
	if p := os.Getenv("CRYPTO_STOCK_CONFIG"); p != "" {
		return p
	}

	local := filepath.Join("_workspace", "config.yaml")
	if _, err := os.Stat(local); err == nil {
		return local
	}

	return "config.yaml"
}
