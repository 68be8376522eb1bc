package stock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/profitviews/crypto-stock/internal/infra"
	"github.com/profitviews/crypto-stock/internal/venue"
)

// MarkSource supplies the underlying asset's current mark price.
type MarkSource interface {
	MarkPrice(ctx context.Context, symbol string) (float64, error)
}

// Snapshot is one premium observation.
type Snapshot struct {
	Symbol       string          `json:"symbol"`
	SharePrice   decimal.Decimal `json:"sharePrice"`
	ImpliedPrice decimal.Decimal `json:"impliedPrice"`
	MarkPrice    decimal.Decimal `json:"markPrice"`
	Premium      decimal.Decimal `json:"premium"`
	Time         time.Time       `json:"time"`
}

const markFetchRetries = 3

// Monitor compares streamed equity quotes against the underlying's polled
// mark price. Quotes arrive via OnQuote, typically subscribed to an equity
// venue's feed; the mark refreshes on a ticker.
type Monitor struct {
	holdings     Holdings
	source       MarkSource
	assetSymbol  string
	pollInterval time.Duration
	onUpdate     func(Snapshot)

	mu   sync.RWMutex
	mark decimal.Decimal
	last Snapshot
	seen bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a monitor for one equity over one underlying symbol.
func NewMonitor(holdings Holdings, source MarkSource, assetSymbol string, pollIntervalSec int, onUpdate func(Snapshot)) *Monitor {
	interval := 60 * time.Second
	if pollIntervalSec > 0 {
		interval = time.Duration(pollIntervalSec) * time.Second
	}
	return &Monitor{
		holdings:     holdings,
		source:       source,
		assetSymbol:  assetSymbol,
		pollInterval: interval,
		onUpdate:     onUpdate,
		mark:         decimal.Zero,
	}
}

// Start fetches the mark once and begins the polling loop. A failed initial
// fetch is logged, not fatal; the next tick retries.
func (m *Monitor) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(ctx)

	if err := m.fetchMark(ctx); err != nil {
		slog.Warn("initial mark fetch failed", "symbol", m.assetSymbol, "err", err)
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("premium monitor stopped", "symbol", m.holdings.Symbol)
				return
			case <-ticker.C:
				if err := m.fetchMark(ctx); err != nil {
					slog.Warn("mark fetch failed", "symbol", m.assetSymbol, "err", err)
				}
			}
		}
	}()

	return nil
}

// Stop halts polling and waits for the loop to exit.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		m.wg.Wait()
	}
}

func (m *Monitor) fetchMark(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < markFetchRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(infra.CalculateBackoff(attempt - 1)):
			}
		}

		mark, err := m.source.MarkPrice(ctx, m.assetSymbol)
		if err == nil {
			m.mu.Lock()
			m.mark = decimal.NewFromFloat(mark)
			m.mu.Unlock()
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// OnQuote folds one equity quote into a premium snapshot. Quotes for other
// symbols are ignored; quotes arriving before the first mark fetch are
// dropped since there is nothing to compare against.
func (m *Monitor) OnQuote(q venue.Quote) {
	if q.Symbol != m.holdings.Symbol {
		return
	}

	m.mu.RLock()
	mark := m.mark
	m.mu.RUnlock()
	if mark.IsZero() {
		return
	}

	mid := decimal.NewFromFloat(q.Bid).Add(decimal.NewFromFloat(q.Ask)).Div(decimal.NewFromInt(2))

	implied, err := m.holdings.ImpliedAssetPrice(mid)
	if err != nil {
		slog.Warn("implied price unavailable", "symbol", q.Symbol, "err", err)
		return
	}
	premium, err := Premium(implied, mark)
	if err != nil {
		return
	}

	snap := Snapshot{
		Symbol:       q.Symbol,
		SharePrice:   mid,
		ImpliedPrice: implied,
		MarkPrice:    mark,
		Premium:      premium,
		Time:         time.Now(),
	}

	m.mu.Lock()
	m.last = snap
	m.seen = true
	m.mu.Unlock()

	slog.Debug("premium observed",
		"symbol", q.Symbol, "implied", implied.String(), "mark", mark.String(), "premium", premium.String())

	if m.onUpdate != nil {
		m.onUpdate(snap)
	}
}

// Latest returns the most recent snapshot, if any quote has been folded in.
func (m *Monitor) Latest() (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.seen
}
