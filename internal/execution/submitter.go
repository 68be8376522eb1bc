package execution

import (
	"context"
	"encoding/json"
)

// Submitter is the opaque order-submission capability supplied by the host
// platform. The core never generates order ids or tracks positions; it hands
// an order to the submitter and reports back whatever came out.
type Submitter interface {
	CreateMarketOrder(ctx context.Context, venueName, symbol, side string, size int64) (json.RawMessage, error)
	CreateLimitOrder(ctx context.Context, venueName, symbol, side string, size int64, price float64) (json.RawMessage, error)
}
