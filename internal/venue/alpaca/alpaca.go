package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/profitviews/crypto-stock/internal/infra"
	"github.com/profitviews/crypto-stock/internal/venue"
)

// Name is the venue identifier.
const Name = "Alpaca"

const (
	equityTick = 0.01
	equityLot  = 1
)

// Config holds connection details for one Alpaca account.
type Config struct {
	TradingURL string
	DataURL    string
	StreamURL  string
	APIKey     string
	SecretKey  string
}

// Adapter is the Alpaca equities venue adapter.
type Adapter struct {
	cfg     Config
	trading *infra.RESTClient
	data    *infra.RESTClient
	catalog *venue.Catalog
	feed    *venue.QuoteFeed
	worker  *infra.StreamWorker
	handler *streamHandler
}

// New builds the adapter and fetches the tradable asset list.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	a := &Adapter{
		cfg:     cfg,
		trading: infra.NewRESTClient(Name+"-trading", 0),
		data:    infra.NewRESTClient(Name+"-data", 0),
		feed:    venue.NewQuoteFeed(),
	}

	instruments, err := a.fetchAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", venue.ErrCatalogUnavailable, Name, err)
	}
	a.catalog = venue.NewCatalog(instruments)

	slog.Info("instrument catalog loaded", "venue", Name, "instruments", a.catalog.Len())
	return a, nil
}

func (a *Adapter) authHeaders() map[string]string {
	return map[string]string{
		"APCA-API-KEY-ID":     a.cfg.APIKey,
		"APCA-API-SECRET-KEY": a.cfg.SecretKey,
	}
}

type asset struct {
	Symbol   string `json:"symbol"`
	Tradable bool   `json:"tradable"`
}

// fetchAssets loads active assets and keeps the tradable ones. US equities
// share one tick and lot convention, so the catalog carries only symbols.
func (a *Adapter) fetchAssets(ctx context.Context) ([]venue.Instrument, error) {
	endpoint := a.cfg.TradingURL + "/v2/assets"
	params := url.Values{"status": {"active"}}

	var assets []asset
	if err := a.trading.GetJSON(ctx, endpoint, params, a.authHeaders(), &assets); err != nil {
		return nil, err
	}

	out := make([]venue.Instrument, 0, len(assets))
	for _, as := range assets {
		if !as.Tradable {
			continue
		}
		out = append(out, venue.Instrument{
			Symbol:         as.Symbol,
			TickSize:       equityTick,
			LotSize:        equityLot,
			MarkPrice:      1,
			SettleCurrency: "USD",
		})
	}
	return out, nil
}

// Name returns the venue identifier.
func (a *Adapter) Name() string { return Name }

// Catalog exposes the instrument catalog.
func (a *Adapter) Catalog() *venue.Catalog { return a.catalog }

func (a *Adapter) instrument(symbol string) (venue.Instrument, error) {
	in, ok := a.catalog.Lookup(symbol)
	if !ok {
		return venue.Instrument{}, fmt.Errorf("%w: %s on %s", venue.ErrUnknownSymbol, symbol, Name)
	}
	return in, nil
}

// Tick returns the instrument's tick size.
func (a *Adapter) Tick(symbol string) (float64, error) {
	in, err := a.instrument(symbol)
	if err != nil {
		return 0, err
	}
	return in.TickSize, nil
}

// Lot returns the instrument's lot size, always 1 for equities.
func (a *Adapter) Lot(symbol string) (int64, error) {
	in, err := a.instrument(symbol)
	if err != nil {
		return 0, err
	}
	return in.LotSize, nil
}

type latestQuoteResponse struct {
	Quote struct {
		AskPrice float64 `json:"ap"`
		BidPrice float64 `json:"bp"`
	} `json:"quote"`
}

// MarkPrice fetches the latest quote and returns its ask price.
func (a *Adapter) MarkPrice(ctx context.Context, symbol string) (float64, error) {
	if _, err := a.instrument(symbol); err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/v2/stocks/%s/quotes/latest", a.cfg.DataURL, symbol)

	var resp latestQuoteResponse
	if err := a.data.GetJSON(ctx, endpoint, nil, a.authHeaders(), &resp); err != nil {
		return 0, fmt.Errorf("fetch %s quote: %w", symbol, err)
	}
	return resp.Quote.AskPrice, nil
}

// StandardSize converts a fiat amount into whole shares at the current mark.
func (a *Adapter) StandardSize(ctx context.Context, symbol string, fiatAmount float64) (int64, error) {
	return venue.StandardSize(ctx, a, symbol, fiatAmount)
}

type orderBody struct {
	Symbol        string  `json:"symbol"`
	Qty           int64   `json:"qty"`
	Side          string  `json:"side"`
	Type          string  `json:"type"`
	TimeInForce   string  `json:"time_in_force"`
	ClientOrderID string  `json:"client_order_id"`
	LimitPrice    float64 `json:"limit_price,omitempty"`
}

type orderResponse struct {
	ID string `json:"id"`
}

// PlaceOrder submits an order with a fresh client order id so retried
// submissions can be reconciled against the venue's ledger.
func (a *Adapter) PlaceOrder(ctx context.Context, req venue.OrderRequest) (*venue.OrderAck, error) {
	if _, err := a.instrument(req.Symbol); err != nil {
		return nil, err
	}
	if req.Type == venue.Limit && req.Price <= 0 {
		return nil, fmt.Errorf("%w: limit order without price", venue.ErrInvalidOrderSpec)
	}

	body := orderBody{
		Symbol:        req.Symbol,
		Qty:           req.Quantity,
		Side:          string(req.Side),
		Type:          string(req.Type),
		TimeInForce:   "gtc",
		ClientOrderID: uuid.NewString(),
	}
	if req.Type == venue.Limit {
		body.LimitPrice = req.Price
	}

	var raw json.RawMessage
	if err := a.trading.PostJSON(ctx, a.cfg.TradingURL+"/v2/orders", body, a.authHeaders(), &raw); err != nil {
		return nil, fmt.Errorf("%s order failed: %w", Name, err)
	}

	var resp orderResponse
	_ = json.Unmarshal(raw, &resp)

	slog.Info("order placed", "venue", Name, "symbol", req.Symbol, "side", req.Side, "qty", req.Quantity, "id", resp.ID)
	return &venue.OrderAck{ID: resp.ID, Raw: raw}, nil
}

// Feed returns the live quote feed.
func (a *Adapter) Feed() *venue.QuoteFeed { return a.feed }

// StartStream opens the market-data stream for the given symbols. The stream
// does not reconnect itself: when it dies the worker goes idle and the caller
// decides whether to start it again. Each idle (re)start builds a fresh
// handler, so a restart may subscribe a different symbol list; while a
// stream is running the list is fixed.
func (a *Adapter) StartStream(ctx context.Context, symbols []string) error {
	if a.worker == nil || !a.worker.Running() {
		a.handler = newStreamHandler(a.cfg, symbols, a.feed)
		a.worker = infra.NewStreamWorker(a.handler)
	}
	return a.worker.Start(ctx)
}

// StopStream closes the stream if one is running.
func (a *Adapter) StopStream() {
	if a.worker != nil {
		a.worker.Stop()
	}
}
