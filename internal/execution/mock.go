package execution

import (
	"context"
	"encoding/json"
	"sync"
)

// SubmittedOrder captures one call into the MockSubmitter.
type SubmittedOrder struct {
	Venue  string
	Symbol string
	Side   string
	Size   int64
	Price  float64
	Type   string
}

// MockSubmitter is a scriptable Submitter for tests.
type MockSubmitter struct {
	mu     sync.Mutex
	Orders []SubmittedOrder

	// MarketResponse / MarketErr script the next market order outcome.
	MarketResponse json.RawMessage
	MarketErr      error
	// ErrAfter, when >= 0, makes every call past that index fail with
	// MarketErr regardless of the scripted response.
	ErrAfter int
}

// NewMockSubmitter returns a submitter that acks everything by default.
func NewMockSubmitter() *MockSubmitter {
	return &MockSubmitter{
		MarketResponse: json.RawMessage(`{"orderID":"mock-1"}`),
		ErrAfter:       -1,
	}
}

func (m *MockSubmitter) CreateMarketOrder(ctx context.Context, venueName, symbol, side string, size int64) (json.RawMessage, error) {
	return m.record(SubmittedOrder{Venue: venueName, Symbol: symbol, Side: side, Size: size, Type: "market"})
}

func (m *MockSubmitter) CreateLimitOrder(ctx context.Context, venueName, symbol, side string, size int64, price float64) (json.RawMessage, error) {
	return m.record(SubmittedOrder{Venue: venueName, Symbol: symbol, Side: side, Size: size, Price: price, Type: "limit"})
}

func (m *MockSubmitter) record(o SubmittedOrder) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.Orders)
	m.Orders = append(m.Orders, o)

	if m.ErrAfter >= 0 && idx >= m.ErrAfter {
		return nil, m.MarketErr
	}
	if m.MarketErr != nil {
		return nil, m.MarketErr
	}
	return m.MarketResponse, nil
}
