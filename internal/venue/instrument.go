package venue

import (
	"fmt"
	"sync"
)

// Instrument is the normalized per-symbol metadata shared by all venues.
// Immutable once fetched; refreshed only by a full catalog re-fetch.
type Instrument struct {
	Symbol         string
	TickSize       float64
	LotSize        int64
	IsInverse      bool
	Multiplier     float64
	SettleCurrency string
	// MarkPrice is the raw venue mark at fetch time. For inverse contracts
	// this is the inverted quote; adapters un-invert on read.
	MarkPrice float64
	// PipLocation is FX-specific (tickSize = 10^pipLocation); zero elsewhere.
	PipLocation float64
}

// Validate enforces the catalog invariants.
func (i Instrument) Validate() error {
	if i.LotSize <= 0 {
		return fmt.Errorf("instrument %s: lot size must be positive, got %d", i.Symbol, i.LotSize)
	}
	if i.TickSize <= 0 {
		return fmt.Errorf("instrument %s: tick size must be positive, got %g", i.Symbol, i.TickSize)
	}
	return nil
}

// Catalog maps symbol to Instrument for one venue.
//
// Reads are concurrent-safe: lookups happen from request handlers while a
// price stream is live. A single-entry "last looked up" cache would be a
// read-after-write hazard under that interleaving, hence the guarded map.
type Catalog struct {
	mu          sync.RWMutex
	instruments map[string]Instrument
}

// NewCatalog builds a catalog from fetched instruments.
func NewCatalog(instruments []Instrument) *Catalog {
	m := make(map[string]Instrument, len(instruments))
	for _, in := range instruments {
		m[in.Symbol] = in
	}
	return &Catalog{instruments: m}
}

// Lookup returns the instrument for symbol.
func (c *Catalog) Lookup(symbol string) (Instrument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	in, ok := c.instruments[symbol]
	return in, ok
}

// Replace swaps the entire instrument set. Used by a full re-fetch only;
// there are no partial updates.
func (c *Catalog) Replace(instruments []Instrument) {
	m := make(map[string]Instrument, len(instruments))
	for _, in := range instruments {
		m[in.Symbol] = in
	}
	c.mu.Lock()
	c.instruments = m
	c.mu.Unlock()
}

// Len returns the number of instruments.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.instruments)
}

// Symbols returns all known symbols in no particular order.
func (c *Catalog) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.instruments))
	for s := range c.instruments {
		out = append(out, s)
	}
	return out
}
