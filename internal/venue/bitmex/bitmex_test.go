package bitmex

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profitviews/crypto-stock/internal/execution"
	"github.com/profitviews/crypto-stock/internal/venue"
)

// fakeCaller scripts the host platform's endpoint capability. Instrument
// pages are served in order; the XBT reference request is answered from
// btcMark.
type fakeCaller struct {
	pages   []string
	btcMark float64
	err     error

	pageIdx   int
	pageCalls []map[string]string
}

func (f *fakeCaller) CallEndpoint(ctx context.Context, venueName, endpoint, access, method string, params map[string]string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if params["symbol"] == "XBT" {
		out, _ := json.Marshal(map[string]any{
			"data": []map[string]any{{"markPrice": f.btcMark}},
		})
		return out, nil
	}

	f.pageCalls = append(f.pageCalls, params)
	if f.pageIdx >= len(f.pages) {
		return json.RawMessage(`{"data":[]}`), nil
	}
	page := f.pages[f.pageIdx]
	f.pageIdx++
	return json.RawMessage(page), nil
}

func newTestAdapter(t *testing.T, caller *fakeCaller, sub execution.Submitter, pageSize int) *Adapter {
	t.Helper()
	a, err := New(context.Background(), caller, sub, Config{
		PageSize:        pageSize,
		RateLimitPerSec: 1000,
	})
	require.NoError(t, err)
	return a
}

func TestNew_PaginatesUntilShortPage(t *testing.T) {
	caller := &fakeCaller{pages: []string{
		`{"data":[
			{"symbol":"XBTUSD","tickSize":0.5,"lotSize":100,"markPrice":0.0002,"isInverse":true,"multiplier":-100000000,"settlCurrency":"XBt"},
			{"symbol":"ETHUSD","tickSize":0.05,"lotSize":1,"markPrice":3000,"isInverse":false,"multiplier":10000,"settlCurrency":"USDt"}
		]}`,
		`{"data":[
			{"symbol":"SOLUSD","tickSize":0.01,"lotSize":10,"markPrice":150,"isInverse":false,"multiplier":100,"settlCurrency":"USDt"}
		]}`,
	}}

	a := newTestAdapter(t, caller, execution.NewMockSubmitter(), 2)

	assert.Equal(t, 3, a.Catalog().Len())
	require.Len(t, caller.pageCalls, 2)
	assert.Equal(t, "0", caller.pageCalls[0]["start"])
	assert.Equal(t, "2", caller.pageCalls[1]["start"])
	assert.Equal(t, "2", caller.pageCalls[0]["count"])

	// columns is a JSON array of the requested fields.
	var cols []string
	require.NoError(t, json.Unmarshal([]byte(caller.pageCalls[0]["columns"]), &cols))
	assert.Contains(t, cols, "markPrice")
	assert.Contains(t, cols, "settlCurrency")
}

func TestNew_FiltersInactiveAndAdvancesByRawPageLength(t *testing.T) {
	// Page one holds two rows but only one survives the filter; the next
	// start offset must still advance by the raw page length.
	caller := &fakeCaller{pages: []string{
		`{"data":[
			{"symbol":"XBTUSD","tickSize":0.5,"lotSize":100,"markPrice":0.0002,"isInverse":true,"multiplier":-100000000,"settlCurrency":"XBt"},
			{"symbol":"DEAD_H26","tickSize":0.5,"lotSize":100,"markPrice":null,"settlCurrency":""}
		]}`,
		`{"data":[]}`,
	}}

	a := newTestAdapter(t, caller, execution.NewMockSubmitter(), 2)

	assert.Equal(t, 1, a.Catalog().Len())
	require.Len(t, caller.pageCalls, 2)
	assert.Equal(t, "2", caller.pageCalls[1]["start"])
}

func TestNew_CoercesStringNumerics(t *testing.T) {
	caller := &fakeCaller{pages: []string{
		`{"data":[
			{"symbol":"XBTUSD","tickSize":"0.5","lotSize":"100","markPrice":"0.0002","isInverse":true,"multiplier":"-100000000","settlCurrency":"XBt"}
		]}`,
	}}

	a := newTestAdapter(t, caller, execution.NewMockSubmitter(), 500)

	in, ok := a.Catalog().Lookup("XBTUSD")
	require.True(t, ok)
	assert.Equal(t, 0.5, in.TickSize)
	assert.Equal(t, int64(100), in.LotSize)
	assert.Equal(t, 0.0002, in.MarkPrice)
	assert.True(t, in.IsInverse)
	assert.Equal(t, float64(-100000000), in.Multiplier)
}

func TestNew_SkipsRowsFailingValidation(t *testing.T) {
	// An active-looking row with a zero lot size is unusable for sizing and
	// must not enter the catalog.
	caller := &fakeCaller{pages: []string{
		`{"data":[
			{"symbol":"XBTUSD","tickSize":0.5,"lotSize":100,"markPrice":0.0002,"isInverse":true,"multiplier":-100000000,"settlCurrency":"XBt"},
			{"symbol":"BROKEN","tickSize":0.5,"markPrice":42,"settlCurrency":"USDt"}
		]}`,
	}}

	a := newTestAdapter(t, caller, execution.NewMockSubmitter(), 500)

	assert.Equal(t, 1, a.Catalog().Len())
	_, ok := a.Catalog().Lookup("BROKEN")
	assert.False(t, ok)
}

func TestNew_CatalogUnavailableOnTransportError(t *testing.T) {
	caller := &fakeCaller{err: errors.New("dial tcp: connection refused")}

	_, err := New(context.Background(), caller, execution.NewMockSubmitter(), Config{RateLimitPerSec: 1000})
	assert.ErrorIs(t, err, venue.ErrCatalogUnavailable)
}

func defaultCatalogCaller() *fakeCaller {
	return &fakeCaller{
		btcMark: 50000,
		pages: []string{
			`{"data":[
				{"symbol":"XBTUSD","tickSize":0.5,"lotSize":100,"markPrice":0.0002,"isInverse":true,"multiplier":-100000000,"settlCurrency":"XBt"},
				{"symbol":"ETHUSD","tickSize":0.05,"lotSize":100,"markPrice":2,"isInverse":false,"multiplier":10000,"settlCurrency":"USDt"}
			]}`,
		},
	}
}

func TestMarkPrice_InvertsInverseContracts(t *testing.T) {
	a := newTestAdapter(t, defaultCatalogCaller(), execution.NewMockSubmitter(), 500)

	mark, err := a.MarkPrice(context.Background(), "XBTUSD")
	require.NoError(t, err)
	assert.InDelta(t, 5000.0, mark, 1e-9)

	mark, err = a.MarkPrice(context.Background(), "ETHUSD")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, mark, 1e-9)

	_, err = a.MarkPrice(context.Background(), "NOPE")
	assert.ErrorIs(t, err, venue.ErrUnknownSymbol)
}

func TestLotValue(t *testing.T) {
	a := newTestAdapter(t, defaultCatalogCaller(), execution.NewMockSubmitter(), 500)

	// Inverse contracts are USD-denominated: one lot is worth its size.
	lv, err := a.LotValue(context.Background(), "XBTUSD")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, lv, 1e-9)

	lv, err = a.LotValue(context.Background(), "ETHUSD")
	require.NoError(t, err)
	assert.InDelta(t, 200.0, lv, 1e-9)
}

func TestContractUSDPrice(t *testing.T) {
	caller := defaultCatalogCaller()
	a := newTestAdapter(t, caller, execution.NewMockSubmitter(), 500)

	// 50000 * 0.001 * 2 * 10000 * 0.00001 = 10
	got, err := a.ContractUSDPrice(context.Background(), "ETHUSD")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestStandardSize_USDtSettled(t *testing.T) {
	a := newTestAdapter(t, defaultCatalogCaller(), execution.NewMockSubmitter(), 500)

	// ETHUSD: markMultiplier = 10000 * 2, settle scale 1e-6,
	// min lot value = 100 * 1e-6 * 20000 = 2 USD. 1000 USD buys 500 lots.
	got, err := a.StandardSize(context.Background(), "ETHUSD", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), got)
}

func TestStandardSize_RejectionBoundary(t *testing.T) {
	a := newTestAdapter(t, defaultCatalogCaller(), execution.NewMockSubmitter(), 500)

	// One ETHUSD lot is worth exactly 2 USD; the float product lands a few
	// ulps under that. Amounts at or below the boundary are rejected even
	// so, and anything clearly above buys one lot.
	for _, fiat := range []float64{2, 1.9999999999999998, 1} {
		_, err := a.StandardSize(context.Background(), "ETHUSD", fiat)
		assert.ErrorIs(t, err, venue.ErrBelowMinimumSize, "fiat %v", fiat)
	}

	got, err := a.StandardSize(context.Background(), "ETHUSD", 2.01)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got)
}

func TestStandardSize_XBtSettled(t *testing.T) {
	a := newTestAdapter(t, defaultCatalogCaller(), execution.NewMockSubmitter(), 500)

	// XBTUSD: mark = 1/0.0002 = 5000, markMultiplier = 1e8 * 5000 = 5e11,
	// settle scale = 50000/1e8 = 5e-4, min lot value = 100 * 5e-4 * 5e11.
	// That dwarfs any sane fiat amount, so the request is rejected.
	_, err := a.StandardSize(context.Background(), "XBTUSD", 1000)
	assert.ErrorIs(t, err, venue.ErrBelowMinimumSize)
}

func TestPlaceOrder_MarketCapitalizesSide(t *testing.T) {
	sub := execution.NewMockSubmitter()
	a := newTestAdapter(t, defaultCatalogCaller(), sub, 500)

	ack, err := a.PlaceOrder(context.Background(), venue.OrderRequest{
		Symbol:   "XBTUSD",
		Side:     venue.Buy,
		Quantity: 100,
		Type:     venue.Market,
	})
	require.NoError(t, err)
	assert.Equal(t, "mock-1", ack.ID)

	require.Len(t, sub.Orders, 1)
	assert.Equal(t, "Buy", sub.Orders[0].Side)
	assert.Equal(t, "BitMEX", sub.Orders[0].Venue)
	assert.Equal(t, int64(100), sub.Orders[0].Size)
}

func TestPlaceOrder_LimitRequiresPrice(t *testing.T) {
	sub := execution.NewMockSubmitter()
	a := newTestAdapter(t, defaultCatalogCaller(), sub, 500)

	_, err := a.PlaceOrder(context.Background(), venue.OrderRequest{
		Symbol:   "XBTUSD",
		Side:     venue.Sell,
		Quantity: 100,
		Type:     venue.Limit,
	})
	assert.ErrorIs(t, err, venue.ErrInvalidOrderSpec)
	// Nothing reached the submitter.
	assert.Empty(t, sub.Orders)
}

func TestPlaceOrder_LimitWithPrice(t *testing.T) {
	sub := execution.NewMockSubmitter()
	a := newTestAdapter(t, defaultCatalogCaller(), sub, 500)

	_, err := a.PlaceOrder(context.Background(), venue.OrderRequest{
		Symbol:   "XBTUSD",
		Side:     venue.Sell,
		Quantity: 200,
		Type:     venue.Limit,
		Price:    64000,
	})
	require.NoError(t, err)
	require.Len(t, sub.Orders, 1)
	assert.Equal(t, "limit", sub.Orders[0].Type)
	assert.Equal(t, 64000.0, sub.Orders[0].Price)
}

func TestPlaceOrder_UnknownSymbol(t *testing.T) {
	sub := execution.NewMockSubmitter()
	a := newTestAdapter(t, defaultCatalogCaller(), sub, 500)

	_, err := a.PlaceOrder(context.Background(), venue.OrderRequest{
		Symbol:   "DOGEUSD",
		Side:     venue.Buy,
		Quantity: 1,
		Type:     venue.Market,
	})
	assert.ErrorIs(t, err, venue.ErrUnknownSymbol)
	assert.Empty(t, sub.Orders)
}
