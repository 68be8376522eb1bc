package venue

import (
	"context"
	"encoding/json"
	"math"
)

// Side is the logical order direction. Each venue maps it to its own
// convention (capitalized strings, signed unit counts, ...).
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Opposite returns the other direction.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType is the execution style of an order.
type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

// OrderRequest describes one order to be placed on a venue.
// Price is only meaningful for limit orders.
type OrderRequest struct {
	Symbol   string
	Side     Side
	Quantity int64
	Type     OrderType
	Price    float64
}

// OrderAck is a venue's acknowledgment of a submitted order.
// ID is the venue-assigned identifier when one could be extracted; Raw is
// the venue's response verbatim so callers can reconcile manually.
type OrderAck struct {
	ID  string
	Raw json.RawMessage
}

// Venue is the uniform surface over one trading venue: instrument metadata,
// pricing, sizing, and order placement.
type Venue interface {
	Name() string

	// Tick returns the instrument's tick size.
	Tick(symbol string) (float64, error)
	// Lot returns the instrument's minimum tradable quantity increment.
	Lot(symbol string) (int64, error)

	// MarkPrice returns the valuation price for a symbol in the venue's
	// quote terms (inverse contracts are un-inverted).
	MarkPrice(ctx context.Context, symbol string) (float64, error)

	// StandardSize converts a fiat amount into a venue-native quantity,
	// rounded down to the instrument's lot granularity.
	StandardSize(ctx context.Context, symbol string, fiatAmount float64) (int64, error)

	// PlaceOrder submits one order and returns the venue's acknowledgment.
	PlaceOrder(ctx context.Context, req OrderRequest) (*OrderAck, error)
}

// Streamer is implemented by venues that push live quotes.
type Streamer interface {
	Feed() *QuoteFeed
	// StartStream begins one long-lived stream for the given symbols.
	// At most one stream runs per adapter; a second call is a logged no-op.
	StartStream(ctx context.Context, symbols []string) error
}

// EndpointCaller is the opaque "call exchange endpoint" capability supplied
// by the host platform. The BitMEX adapter routes all its REST traffic
// through it rather than owning credentials itself.
type EndpointCaller interface {
	CallEndpoint(ctx context.Context, venueName, endpoint, access, method string, params map[string]string) (json.RawMessage, error)
}

// StandardSize is the shared sizing rule used by venues without their own
// notional convention: floor(fiat / (markPrice * lotSize)), the number of
// whole lots the amount affords at the mark.
func StandardSize(ctx context.Context, v Venue, symbol string, fiatAmount float64) (int64, error) {
	lot, err := v.Lot(symbol)
	if err != nil {
		return 0, err
	}
	mark, err := v.MarkPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return int64(math.Floor(fiatAmount / (mark * float64(lot)))), nil
}
