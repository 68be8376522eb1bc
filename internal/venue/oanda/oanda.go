package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/profitviews/crypto-stock/internal/infra"
	"github.com/profitviews/crypto-stock/internal/venue"
)

// Name is the venue identifier.
const Name = "OANDA"

// Config holds connection details for one OANDA account.
type Config struct {
	RestURL   string
	StreamURL string
	AccountID string
	APIKey    string
}

// Adapter is the OANDA FX venue adapter. Instruments come from the account's
// instrument list; live prices come from the pricing endpoint and the
// streaming feed.
type Adapter struct {
	cfg     Config
	rest    *infra.RESTClient
	catalog *venue.Catalog
	feed    *venue.QuoteFeed
	worker  *infra.StreamWorker
	handler *streamHandler
}

// New builds the adapter and fetches the instrument catalog.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	a := &Adapter{
		cfg:  cfg,
		rest: infra.NewRESTClient(Name, 0),
		feed: venue.NewQuoteFeed(),
	}

	instruments, err := a.fetchInstruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", venue.ErrCatalogUnavailable, Name, err)
	}
	a.catalog = venue.NewCatalog(instruments)

	slog.Info("instrument catalog loaded", "venue", Name, "instruments", a.catalog.Len())
	return a, nil
}

func (a *Adapter) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.cfg.APIKey}
}

type instrumentsResponse struct {
	Instruments []struct {
		Name        string `json:"name"`
		PipLocation int    `json:"pipLocation"`
	} `json:"instruments"`
}

// fetchInstruments loads the account's tradable instruments. FX trades in
// single units, so every instrument gets lot size 1; the tick is derived
// from the pip location. The catalog mark is a placeholder, live pricing
// always goes through MarkPrice.
func (a *Adapter) fetchInstruments(ctx context.Context) ([]venue.Instrument, error) {
	endpoint := fmt.Sprintf("%s/v3/accounts/%s/instruments", a.cfg.RestURL, a.cfg.AccountID)

	var resp instrumentsResponse
	if err := a.rest.GetJSON(ctx, endpoint, nil, a.authHeaders(), &resp); err != nil {
		return nil, err
	}

	out := make([]venue.Instrument, 0, len(resp.Instruments))
	for _, in := range resp.Instruments {
		out = append(out, venue.Instrument{
			Symbol:         in.Name,
			TickSize:       math.Pow(10, float64(in.PipLocation)),
			LotSize:        1,
			MarkPrice:      1,
			SettleCurrency: quoteCurrency(in.Name),
			PipLocation:    float64(in.PipLocation),
		})
	}
	return out, nil
}

// quoteCurrency extracts the quote side of a pair name like "EUR_USD".
func quoteCurrency(name string) string {
	if i := strings.LastIndex(name, "_"); i >= 0 && i+1 < len(name) {
		return name[i+1:]
	}
	return "USD"
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

// Lot returns the instrument's lot size, always 1 for FX.
func (a *Adapter) Lot(symbol string) (int64, error) {
	in, err := a.instrument(symbol)
	if err != nil {
		return 0, err
	}
	return in.LotSize, nil
}

type pricingResponse struct {
	Prices []struct {
		CloseoutAsk string `json:"closeoutAsk"`
	} `json:"prices"`
}

// MarkPrice fetches the current closeout ask for the instrument.
func (a *Adapter) MarkPrice(ctx context.Context, symbol string) (float64, error) {
	if _, err := a.instrument(symbol); err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/v3/accounts/%s/pricing", a.cfg.RestURL, a.cfg.AccountID)
	params := url.Values{"instruments": {symbol}}

	var resp pricingResponse
	if err := a.rest.GetJSON(ctx, endpoint, params, a.authHeaders(), &resp); err != nil {
		return 0, fmt.Errorf("fetch %s pricing: %w", symbol, err)
	}
	if len(resp.Prices) == 0 {
		return 0, fmt.Errorf("%s: empty pricing response for %s", Name, symbol)
	}

	ask, err := strconv.ParseFloat(resp.Prices[0].CloseoutAsk, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: parse closeout ask for %s: %w", Name, symbol, err)
	}
	return ask, nil
}

// StandardSize converts a fiat amount into whole units at the current mark.
func (a *Adapter) StandardSize(ctx context.Context, symbol string, fiatAmount float64) (int64, error) {
	return venue.StandardSize(ctx, a, symbol, fiatAmount)
}

type orderBody struct {
	Order struct {
		Instrument   string `json:"instrument"`
		Units        string `json:"units"`
		Type         string `json:"type"`
		PositionFill string `json:"positionFill"`
	} `json:"order"`
}

type orderResponse struct {
	OrderCreateTransaction struct {
		ID string `json:"id"`
	} `json:"orderCreateTransaction"`
}

// PlaceOrder submits a market order. OANDA encodes the side in the sign of
// the units field. Limit orders are not supported on this venue adapter.
func (a *Adapter) PlaceOrder(ctx context.Context, req venue.OrderRequest) (*venue.OrderAck, error) {
	if _, err := a.instrument(req.Symbol); err != nil {
		return nil, err
	}
	if req.Type != venue.Market {
		return nil, fmt.Errorf("%w: %s supports market orders only", venue.ErrInvalidOrderSpec, Name)
	}

	units := req.Quantity
	if req.Side == venue.Sell {
		units = -units
	}

	var body orderBody
	body.Order.Instrument = req.Symbol
	body.Order.Units = strconv.FormatInt(units, 10)
	body.Order.Type = "MARKET"
	body.Order.PositionFill = "DEFAULT"

	endpoint := fmt.Sprintf("%s/v3/accounts/%s/orders", a.cfg.RestURL, a.cfg.AccountID)

	var raw json.RawMessage
	if err := a.rest.PostJSON(ctx, endpoint, body, a.authHeaders(), &raw); err != nil {
		return nil, fmt.Errorf("%s order failed: %w", Name, err)
	}

	var resp orderResponse
	_ = json.Unmarshal(raw, &resp)

	slog.Info("order placed", "venue", Name, "symbol", req.Symbol, "units", units, "id", resp.OrderCreateTransaction.ID)
	return &venue.OrderAck{ID: resp.OrderCreateTransaction.ID, Raw: raw}, nil
}

// Feed returns the live quote feed.
func (a *Adapter) Feed() *venue.QuoteFeed { return a.feed }

// StartStream opens the pricing stream for the given instruments. The stream
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
