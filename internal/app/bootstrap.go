package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/profitviews/crypto-stock/internal/execution"
	"github.com/profitviews/crypto-stock/internal/infra"
	"github.com/profitviews/crypto-stock/internal/stock"
	"github.com/profitviews/crypto-stock/internal/synth"
	"github.com/profitviews/crypto-stock/internal/venue/alpaca"
	"github.com/profitviews/crypto-stock/internal/venue/bitmex"
	"github.com/profitviews/crypto-stock/internal/venue/oanda"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config      *infra.Config
	Submitter   execution.Submitter
	BitMEX      *bitmex.Adapter
	OANDA       *oanda.Adapter
	Alpaca      *alpaca.Adapter
	Coordinator *synth.Coordinator
	Monitor     *stock.Monitor
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration, builds the venue adapters (each fetches
// its instrument catalog up front), and wires the coordinator and the
// premium monitor.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	slog.Info("🚀 Bootstrapping crypto-stock core...")

	// 1. Load Config (Dynamic Path Resolution)
	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err
	}
	b.Config = cfg

	// Optional secrets file, pointed at by env so keys stay out of the
	// main config.
	if path := os.Getenv("CRYPTO_STOCK_SECRETS"); path != "" {
		secrets, err := infra.LoadSecretConfig(path)
		if err != nil {
			return err
		}
		secrets.Apply(cfg)
	}

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	infra.PrintBanner(cfg)

	// 3. Order submission. BitMEX routing goes through the host platform's
	// submitter; without one attached, orders fill on paper in either mode.
	b.Submitter = execution.NewPaperSubmitter()
	if strings.ToUpper(cfg.Trading.Mode) == "LIVE" {
		slog.Warn("LIVE mode without a host submitter: BitMEX orders fill on paper")
	}

	// 4. Venue adapters. BitMEX is mandatory; OANDA and Alpaca come up only
	// when credentials are present.
	bmx, err := bitmex.New(ctx, bitmex.NewRESTCaller(""), b.Submitter, bitmex.Config{
		PageSize:        cfg.Venues.BitMEX.PageSize,
		RateLimitPerSec: cfg.Venues.BitMEX.RateLimitPerSec,
	})
	if err != nil {
		return fmt.Errorf("bitmex adapter: %w", err)
	}
	b.BitMEX = bmx
	slog.Info("✅ BitMEX adapter ready", "instruments", bmx.Catalog().Len())

	if cfg.Venues.OANDA.APIKey != "" && cfg.Venues.OANDA.AccountID != "" {
		oa, err := oanda.New(ctx, oanda.Config{
			RestURL:   cfg.Venues.OANDA.RestURL,
			StreamURL: cfg.Venues.OANDA.StreamURL,
			AccountID: cfg.Venues.OANDA.AccountID,
			APIKey:    cfg.Venues.OANDA.APIKey,
		})
		if err != nil {
			return fmt.Errorf("oanda adapter: %w", err)
		}
		b.OANDA = oa
		slog.Info("✅ OANDA adapter ready", "instruments", oa.Catalog().Len())
	} else {
		slog.Warn("OANDA credentials missing, FX leg unavailable")
	}

	if cfg.Venues.Alpaca.APIKey != "" {
		al, err := alpaca.New(ctx, alpaca.Config{
			TradingURL: cfg.Venues.Alpaca.TradingURL,
			DataURL:    cfg.Venues.Alpaca.DataURL,
			StreamURL:  cfg.Venues.Alpaca.StreamURL,
			APIKey:     cfg.Venues.Alpaca.APIKey,
			SecretKey:  cfg.Venues.Alpaca.SecretKey,
		})
		if err != nil {
			return fmt.Errorf("alpaca adapter: %w", err)
		}
		b.Alpaca = al
		slog.Info("✅ Alpaca adapter ready", "instruments", al.Catalog().Len())
	} else {
		slog.Warn("Alpaca credentials missing, equity side unavailable")
	}

	// 5. Synthetic coordinator over the crypto and FX legs.
	if b.OANDA != nil {
		specs := make([]synth.Spec, 0, len(cfg.Synthetics))
		for name, s := range cfg.Synthetics {
			specs = append(specs, synth.Spec{Name: name, Crypto: s.Crypto, FX: s.FX})
		}
		b.Coordinator = synth.NewCoordinator(synth.NewTable(specs...), bmx, b.OANDA)
		slog.Info("✅ Synthetic coordinator ready", "synthetics", len(specs))
	}

	// 6. Premium monitor comparing the equity against the underlying.
	if cfg.Stock.Symbol != "" {
		holdings := stock.Holdings{
			Symbol:            cfg.Stock.Symbol,
			AssetHeld:         decimal.NewFromFloat(cfg.Stock.AssetHeld),
			SharesOutstanding: decimal.NewFromInt(cfg.Stock.SharesOutstanding),
		}
		b.Monitor = stock.NewMonitor(holdings, bmx, cfg.Stock.AssetSymbol, cfg.Stock.PollIntervalSec, nil)
		if b.Alpaca != nil {
			b.Alpaca.Feed().Subscribe(b.Monitor.OnQuote)
		}
		slog.Info("✅ Premium monitor ready", "symbol", cfg.Stock.Symbol, "asset", cfg.Stock.AssetSymbol)
	}

	return nil
}

// StartStreams opens the live price streams and the premium monitor's
// polling loop. Streams are single-shot: if one dies the process logs it
// and keeps running on the surviving feeds.
func (b *Bootstrap) StartStreams(ctx context.Context) {
	if b.Monitor != nil {
		if err := b.Monitor.Start(ctx); err != nil {
			slog.Error("premium monitor failed to start", "err", err)
		}
	}

	if b.OANDA != nil && b.Coordinator != nil {
		fxSymbols := make([]string, 0, len(b.Config.Synthetics))
		seen := map[string]bool{}
		for _, s := range b.Config.Synthetics {
			if !seen[s.FX] {
				seen[s.FX] = true
				fxSymbols = append(fxSymbols, s.FX)
			}
		}
		if len(fxSymbols) > 0 {
			if err := b.OANDA.StartStream(ctx, fxSymbols); err != nil {
				slog.Error("OANDA stream failed to start", "err", err)
			}
		}
	}

	if b.Alpaca != nil && b.Config.Stock.Symbol != "" {
		if err := b.Alpaca.StartStream(ctx, []string{b.Config.Stock.Symbol}); err != nil {
			slog.Error("Alpaca stream failed to start", "err", err)
		}
	}
}

// Shutdown stops streams and background loops.
func (b *Bootstrap) Shutdown() {
	if b.Monitor != nil {
		b.Monitor.Stop()
	}
	if b.OANDA != nil {
		b.OANDA.StopStream()
	}
	if b.Alpaca != nil {
		b.Alpaca.StopStream()
	}
}
