package bitmex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/profitviews/crypto-stock/internal/execution"
	"github.com/profitviews/crypto-stock/internal/infra"
	"github.com/profitviews/crypto-stock/internal/venue"
)

const (
	// Name is the venue identifier used by the host platform's endpoint router.
	Name = "BitMEX"

	instrumentEndpoint = "instrument"
	defaultPageSize    = 500

	// Inverse-contract USD conversion constants. The reference scale and
	// adjustment factor are calibrated against venue quotes; treat them as
	// fixed, a wrong value shifts USD notionals by orders of magnitude.
	referenceScale   = 0.001
	adjustmentFactor = 0.00001

	// Settlement-currency scaling: XBt-settled contracts are denominated in
	// satoshi, USDt-settled ones in micro-dollars.
	btcInSatoshi = 1e8
	usdtInUSD    = 1e-6

	// sizeTolerance absorbs float rounding when comparing a fiat amount
	// against the minimum lot value.
	sizeTolerance = 1e-9
)

// algoParameters declares the instrument fields we request and the primitive
// type each raw value is coerced to.
var algoParameters = []struct {
	column string
	kind   string
}{
	{"tickSize", "float"},
	{"lotSize", "int"},
	{"markPrice", "float"},
	{"isInverse", "bool"},
	{"multiplier", "float"},
	{"settlCurrency", "str"},
	{"symbol", "str"},
}

// Config tunes catalog fetching.
type Config struct {
	PageSize        int
	RateLimitPerSec float64
}

// Adapter is the BitMEX venue adapter. All REST traffic goes through the
// host platform's opaque endpoint-caller capability; orders go through the
// opaque submitter.
type Adapter struct {
	caller    venue.EndpointCaller
	submitter execution.Submitter
	catalog   *venue.Catalog
	pageSize  int
	limiter   *infra.RateLimiter
}

// New builds the adapter and fetches the full instrument catalog. A fetch
// failure is fatal: without instrument data there is no adapter.
func New(ctx context.Context, caller venue.EndpointCaller, submitter execution.Submitter, cfg Config) (*Adapter, error) {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	perSec := cfg.RateLimitPerSec
	if perSec <= 0 {
		perSec = 2
	}

	a := &Adapter{
		caller:    caller,
		submitter: submitter,
		pageSize:  pageSize,
		limiter:   infra.NewRateLimiter(1, perSec),
	}

	instruments, err := a.fetchInstruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", venue.ErrCatalogUnavailable, Name, err)
	}
	a.catalog = venue.NewCatalog(instruments)

	slog.Info("instrument catalog loaded", "venue", Name, "instruments", a.catalog.Len())
	return a, nil
}

type instrumentPage struct {
	Data []map[string]any `json:"data"`
}

// fetchInstruments pages through the venue's instrument list. Each request
// asks for pageSize rows starting at the running offset; a page smaller than
// pageSize ends the walk. The rate limiter spaces requests to stay under the
// venue's throttle.
func (a *Adapter) fetchInstruments(ctx context.Context) ([]venue.Instrument, error) {
	columns := make([]string, len(algoParameters))
	for i, p := range algoParameters {
		columns[i] = p.column
	}
	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return nil, err
	}

	var all []venue.Instrument
	offset := 0

	for {
		raw, err := a.caller.CallEndpoint(ctx, Name, instrumentEndpoint, "public", "GET", map[string]string{
			"count":   strconv.Itoa(a.pageSize),
			"start":   strconv.Itoa(offset),
			"columns": string(columnsJSON),
		})
		if err != nil {
			return nil, err
		}

		var page instrumentPage
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("decode instrument page: %w", err)
		}

		for _, row := range page.Data {
			// Entries with neither a settlement currency nor a live mark
			// price are inactive or delisted.
			if !truthy(row["settlCurrency"]) || !truthy(row["markPrice"]) {
				continue
			}
			in := coerceInstrument(row)
			if err := in.Validate(); err != nil {
				slog.Warn("skipping malformed instrument", "venue", Name, "err", err)
				continue
			}
			all = append(all, in)
		}

		offset += len(page.Data)
		slog.Debug("instrument page fetched", "venue", Name, "total", offset)

		if len(page.Data) < a.pageSize {
			break
		}
		a.limiter.Wait()
	}

	return all, nil
}

// coerceInstrument applies the declared primitive type to each raw field.
// Empty or falsy raw values pass through unconverted so an unknown stays an
// unknown instead of becoming a misleading zero.
func coerceInstrument(row map[string]any) venue.Instrument {
	return venue.Instrument{
		Symbol:         coerceString(row["symbol"]),
		TickSize:       coerceFloat(row["tickSize"]),
		LotSize:        coerceInt(row["lotSize"]),
		MarkPrice:      coerceFloat(row["markPrice"]),
		IsInverse:      coerceBool(row["isInverse"]),
		Multiplier:     coerceFloat(row["multiplier"]),
		SettleCurrency: coerceString(row["settlCurrency"]),
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case json.Number:
		f, _ := x.Float64()
		return f != 0
	default:
		return true
	}
}

func coerceFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		if x == "" {
			return 0
		}
		f, _ := strconv.ParseFloat(x, 64)
		return f
	case json.Number:
		f, _ := x.Float64()
		return f
	default:
		return 0
	}
}

func coerceInt(v any) int64 {
	switch x := v.(type) {
	case float64:
		return int64(x)
	case string:
		if x == "" {
			return 0
		}
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	case json.Number:
		n, _ := x.Int64()
		return n
	default:
		return 0
	}
}

func coerceBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return false
	}
}

func coerceString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
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

// Lot returns the instrument's lot size.
func (a *Adapter) Lot(symbol string) (int64, error) {
	in, err := a.instrument(symbol)
	if err != nil {
		return 0, err
	}
	return in.LotSize, nil
}

// MarkPrice returns the instrument's mark in quote terms: inverse contracts
// are quoted in the base asset, so the mark is un-inverted on read.
func (a *Adapter) MarkPrice(ctx context.Context, symbol string) (float64, error) {
	in, err := a.instrument(symbol)
	if err != nil {
		return 0, err
	}
	if in.IsInverse {
		return 1 / in.MarkPrice, nil
	}
	return in.MarkPrice, nil
}

// LotValue returns one lot's value in the instrument's quote currency.
// Inverse instruments are quoted in USD, so the lot itself is the value.
func (a *Adapter) LotValue(ctx context.Context, symbol string) (float64, error) {
	in, err := a.instrument(symbol)
	if err != nil {
		return 0, err
	}
	if in.IsInverse {
		return float64(in.LotSize), nil
	}
	mark, err := a.MarkPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return float64(in.LotSize) * mark, nil
}

// BTCMarkPrice fetches the reference XBT mark price.
func (a *Adapter) BTCMarkPrice(ctx context.Context) (float64, error) {
	raw, err := a.caller.CallEndpoint(ctx, Name, instrumentEndpoint, "public", "GET", map[string]string{
		"symbol":  "XBT",
		"columns": "markPrice",
	})
	if err != nil {
		return 0, fmt.Errorf("fetch XBT mark: %w", err)
	}

	var page instrumentPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return 0, fmt.Errorf("decode XBT mark: %w", err)
	}
	if len(page.Data) == 0 {
		return 0, fmt.Errorf("empty XBT mark response")
	}
	return coerceFloat(page.Data[0]["markPrice"]), nil
}

// ContractUSDPrice converts one contract's notional into USD. Inverse
// contracts price in the base asset, so the conversion runs through the
// instrument's own mark, its multiplier, and the reference XBT mark.
func (a *Adapter) ContractUSDPrice(ctx context.Context, symbol string) (float64, error) {
	in, err := a.instrument(symbol)
	if err != nil {
		return 0, err
	}
	btcMark, err := a.BTCMarkPrice(ctx)
	if err != nil {
		return 0, err
	}
	return btcMark * referenceScale * in.MarkPrice * in.Multiplier * adjustmentFactor, nil
}

// StandardSize converts a dollar amount into contracts, rounded down to the
// lot granularity. The minimum dollar size of one lot depends on how the
// contract settles: XBt-settled lots scale by the satoshi-denominated XBT
// mark, USDt-settled ones by the micro-dollar unit.
func (a *Adapter) StandardSize(ctx context.Context, symbol string, fiatAmount float64) (int64, error) {
	in, err := a.instrument(symbol)
	if err != nil {
		return 0, err
	}

	mark := in.MarkPrice
	if in.IsInverse {
		mark = 1 / mark
	}
	markMultiplier := math.Abs(in.Multiplier) * mark

	btcMark, err := a.BTCMarkPrice(ctx)
	if err != nil {
		return 0, err
	}

	settleMark := usdtInUSD
	if in.SettleCurrency == "XBt" {
		settleMark = btcMark / btcInSatoshi
	}

	minDollarSize := float64(in.LotSize) * settleMark * markMultiplier

	// The rejection boundary is "strictly more than one lot's worth".
	// A relative tolerance keeps it stable when the product above lands a
	// few ulps under the exact value.
	if fiatAmount <= minDollarSize*(1+sizeTolerance) {
		return 0, fmt.Errorf("%w: %s needs more than %.2f USD per lot", venue.ErrBelowMinimumSize, symbol, minDollarSize)
	}

	multiple := math.Floor(fiatAmount / minDollarSize)
	return int64(multiple) * in.LotSize, nil
}

// PlaceOrder submits an order via the host platform. BitMEX expects the
// side capitalized.
func (a *Adapter) PlaceOrder(ctx context.Context, req venue.OrderRequest) (*venue.OrderAck, error) {
	if _, err := a.instrument(req.Symbol); err != nil {
		return nil, err
	}

	side := capitalize(string(req.Side))

	var raw json.RawMessage
	var err error
	switch {
	case req.Type == venue.Market:
		raw, err = a.submitter.CreateMarketOrder(ctx, Name, req.Symbol, side, req.Quantity)
	case req.Type == venue.Limit && req.Price > 0:
		raw, err = a.submitter.CreateLimitOrder(ctx, Name, req.Symbol, side, req.Quantity, req.Price)
	default:
		return nil, fmt.Errorf("%w: type %q with price %g", venue.ErrInvalidOrderSpec, req.Type, req.Price)
	}
	if err != nil {
		return nil, fmt.Errorf("%s order failed: %w", Name, err)
	}

	return &venue.OrderAck{ID: extractOrderID(raw), Raw: raw}, nil
}

func extractOrderID(raw json.RawMessage) string {
	var ack struct {
		OrderID string `json:"orderID"`
	}
	if err := json.Unmarshal(raw, &ack); err != nil {
		return ""
	}
	return ack.OrderID
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
