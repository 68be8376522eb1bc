package execution

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Fill records one simulated execution.
type Fill struct {
	OrderID  string  `json:"orderID"`
	Venue    string  `json:"venue"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Size     int64   `json:"size"`
	Price    float64 `json:"price,omitempty"`
	Type     string  `json:"ordType"`
	Unix     int64   `json:"timestamp"`
}

// PaperSubmitter acknowledges every order with a synthetic fill instead of
// routing it to a venue. It lets the whole stack run end-to-end without a
// host platform attached.
type PaperSubmitter struct {
	mu    sync.Mutex
	fills []Fill
}

// NewPaperSubmitter creates an empty paper submitter.
func NewPaperSubmitter() *PaperSubmitter {
	return &PaperSubmitter{}
}

// CreateMarketOrder simulates an immediate market fill.
func (p *PaperSubmitter) CreateMarketOrder(ctx context.Context, venueName, symbol, side string, size int64) (json.RawMessage, error) {
	return p.record(Fill{
		OrderID: uuid.NewString(),
		Venue:   venueName,
		Symbol:  symbol,
		Side:    side,
		Size:    size,
		Type:    "market",
		Unix:    time.Now().Unix(),
	})
}

// CreateLimitOrder simulates an immediately-resting limit order.
func (p *PaperSubmitter) CreateLimitOrder(ctx context.Context, venueName, symbol, side string, size int64, price float64) (json.RawMessage, error) {
	return p.record(Fill{
		OrderID: uuid.NewString(),
		Venue:   venueName,
		Symbol:  symbol,
		Side:    side,
		Size:    size,
		Price:   price,
		Type:    "limit",
		Unix:    time.Now().Unix(),
	})
}

func (p *PaperSubmitter) record(f Fill) (json.RawMessage, error) {
	p.mu.Lock()
	p.fills = append(p.fills, f)
	p.mu.Unlock()

	slog.Info("paper order filled",
		"venue", f.Venue, "symbol", f.Symbol, "side", f.Side, "size", f.Size, "orderID", f.OrderID)

	return json.Marshal(f)
}

// Fills returns a copy of all recorded fills.
func (p *PaperSubmitter) Fills() []Fill {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Fill, len(p.fills))
	copy(out, p.fills)
	return out
}
