package venue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstrument_Validate(t *testing.T) {
	tests := []struct {
		name       string
		instrument Instrument
		wantErr    bool
	}{
		{"Valid", Instrument{Symbol: "XBTUSD", TickSize: 0.5, LotSize: 100}, false},
		{"ZeroLot", Instrument{Symbol: "X", TickSize: 0.5, LotSize: 0}, true},
		{"NegativeLot", Instrument{Symbol: "X", TickSize: 0.5, LotSize: -1}, true},
		{"ZeroTick", Instrument{Symbol: "X", TickSize: 0, LotSize: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.instrument.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCatalog_Lookup(t *testing.T) {
	cat := NewCatalog([]Instrument{
		{Symbol: "XBTUSD", TickSize: 0.5, LotSize: 100, IsInverse: true},
		{Symbol: "ETHUSD", TickSize: 0.05, LotSize: 1},
	})

	in, ok := cat.Lookup("XBTUSD")
	assert.True(t, ok)
	assert.Equal(t, int64(100), in.LotSize)
	assert.True(t, in.IsInverse)

	_, ok = cat.Lookup("DOGEUSD")
	assert.False(t, ok)
	assert.Equal(t, 2, cat.Len())
}

// Looking up a different symbol and then the original again must return the
// original's metadata, not residue from the previous lookup.
func TestCatalog_InterleavedLookups(t *testing.T) {
	cat := NewCatalog([]Instrument{
		{Symbol: "XBTUSD", TickSize: 0.5, LotSize: 100},
		{Symbol: "EUR_USD", TickSize: 0.0001, LotSize: 1},
	})

	first, _ := cat.Lookup("XBTUSD")
	other, _ := cat.Lookup("EUR_USD")
	again, _ := cat.Lookup("XBTUSD")

	assert.Equal(t, first, again)
	assert.NotEqual(t, other.LotSize, again.LotSize)
}

func TestCatalog_ConcurrentReads(t *testing.T) {
	cat := NewCatalog([]Instrument{{Symbol: "XBTUSD", TickSize: 0.5, LotSize: 100}})

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 1000; j++ {
				if _, ok := cat.Lookup("XBTUSD"); !ok {
					t.Error("lookup failed during concurrent reads")
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestCatalog_Replace(t *testing.T) {
	cat := NewCatalog([]Instrument{{Symbol: "OLD", TickSize: 1, LotSize: 1}})
	cat.Replace([]Instrument{{Symbol: "NEW", TickSize: 1, LotSize: 5}})

	_, ok := cat.Lookup("OLD")
	assert.False(t, ok, "replace must drop old entries")
	in, ok := cat.Lookup("NEW")
	assert.True(t, ok)
	assert.Equal(t, int64(5), in.LotSize)
}
