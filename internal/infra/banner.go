package infra

import (
	"fmt"
	"strings"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
)

// PrintBanner displays the startup banner with mode-specific warnings.
func PrintBanner(cfg *Config) {
	mode := strings.ToUpper(cfg.Trading.Mode)

	color := colorCyan
	modeDesc := "virtual fills"
	if mode == "LIVE" {
		color = colorRed
		modeDesc = "live orders on real venues"
	}

	fmt.Println()
	fmt.Printf("%s###########################################################%s\n", color, colorReset)
	fmt.Printf("%s#  %s %s%s\n", color, cfg.App.Name, cfg.App.Version, colorReset)
	fmt.Printf("%s#  MODE: %s (%s)%s\n", color, mode, modeDesc, colorReset)
	fmt.Printf("%s#  Synthetics configured: %d%s\n", color, len(cfg.Synthetics), colorReset)
	fmt.Printf("%s###########################################################%s\n", color, colorReset)
	if mode == "LIVE" {
		fmt.Printf("%s#  Orders placed from this process move real money.%s\n", colorYellow, colorReset)
	}
	fmt.Println()
}
