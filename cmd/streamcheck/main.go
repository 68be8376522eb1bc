package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/profitviews/crypto-stock/internal/venue"
	"github.com/profitviews/crypto-stock/internal/venue/oanda"
)

// streamcheck opens the OANDA practice pricing stream and prints a handful
// of ticks. Needs OANDA_API_KEY and OANDA_ACCOUNT_ID in the environment or
// a local .env.
func main() {
	_ = godotenv.Load()

	apiKey := os.Getenv("OANDA_API_KEY")
	accountID := os.Getenv("OANDA_ACCOUNT_ID")
	if apiKey == "" || accountID == "" {
		fmt.Fprintln(os.Stderr, "OANDA_API_KEY and OANDA_ACCOUNT_ID must be set")
		os.Exit(1)
	}

	cfg := oanda.Config{
		RestURL:   "https://api-fxpractice.oanda.com",
		StreamURL: "wss://stream-fxpractice.oanda.com",
		AccountID: accountID,
		APIKey:    apiKey,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	adapter, err := oanda.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "adapter init failed: %v\n", err)
		os.Exit(1)
	}

	const wanted = 10
	done := make(chan struct{})
	seen := 0
	adapter.Feed().Subscribe(func(q venue.Quote) {
		fmt.Printf("📡 %s  bid=%.5f  ask=%.5f\n", q.Symbol, q.Bid, q.Ask)
		seen++
		if seen == wanted {
			close(done)
		}
	})

	if err := adapter.StartStream(ctx, []string{"EUR_USD"}); err != nil {
		fmt.Fprintf(os.Stderr, "stream start failed: %v\n", err)
		os.Exit(1)
	}
	defer adapter.StopStream()

	select {
	case <-done:
		fmt.Println("✅ stream delivering quotes")
	case <-ctx.Done():
		fmt.Fprintf(os.Stderr, "timed out after %d quotes\n", seen)
		os.Exit(1)
	}
}
