package alpaca

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profitviews/crypto-stock/internal/venue"
)

func newTestServer(t *testing.T, askPrice string, orders *[][]byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/v2/assets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-id", r.Header.Get("APCA-API-KEY-ID"))
		assert.Equal(t, "secret", r.Header.Get("APCA-API-SECRET-KEY"))
		assert.Equal(t, "active", r.URL.Query().Get("status"))
		io.WriteString(w, `[
			{"symbol":"IBIT","tradable":true},
			{"symbol":"MSTR","tradable":true},
			{"symbol":"HALTED","tradable":false}
		]`)
	})

	mux.HandleFunc("/v2/stocks/IBIT/quotes/latest", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"symbol":"IBIT","quote":{"ap":`+askPrice+`,"bp":58.10}}`)
	})

	mux.HandleFunc("/v2/orders", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if orders != nil {
			*orders = append(*orders, body)
		}
		io.WriteString(w, `{"id":"b2c8e1f0-aaaa-bbbb-cccc-000000000001","status":"accepted"}`)
	})

	return httptest.NewServer(mux)
}

func newTestAdapter(t *testing.T, srv *httptest.Server) *Adapter {
	t.Helper()
	a, err := New(context.Background(), Config{
		TradingURL: srv.URL,
		DataURL:    srv.URL,
		APIKey:     "key-id",
		SecretKey:  "secret",
	})
	require.NoError(t, err)
	return a
}

func TestNew_KeepsOnlyTradableAssets(t *testing.T) {
	srv := newTestServer(t, "58.20", nil)
	defer srv.Close()

	a := newTestAdapter(t, srv)
	assert.Equal(t, 2, a.Catalog().Len())

	in, ok := a.Catalog().Lookup("IBIT")
	require.True(t, ok)
	assert.Equal(t, 0.01, in.TickSize)
	assert.Equal(t, int64(1), in.LotSize)

	_, ok = a.Catalog().Lookup("HALTED")
	assert.False(t, ok)
}

func TestMarkPrice_UsesLatestAsk(t *testing.T) {
	srv := newTestServer(t, "58.20", nil)
	defer srv.Close()

	a := newTestAdapter(t, srv)
	mark, err := a.MarkPrice(context.Background(), "IBIT")
	require.NoError(t, err)
	assert.InDelta(t, 58.20, mark, 1e-9)

	_, err = a.MarkPrice(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, venue.ErrUnknownSymbol)
}

func TestStandardSize_WholeShares(t *testing.T) {
	srv := newTestServer(t, "58.20", nil)
	defer srv.Close()

	a := newTestAdapter(t, srv)
	got, err := a.StandardSize(context.Background(), "IBIT", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(17), got)
}

func TestPlaceOrder_MarketWithClientOrderID(t *testing.T) {
	var orders [][]byte
	srv := newTestServer(t, "58.20", &orders)
	defer srv.Close()

	a := newTestAdapter(t, srv)
	ack, err := a.PlaceOrder(context.Background(), venue.OrderRequest{
		Symbol: "IBIT", Side: venue.Buy, Quantity: 17, Type: venue.Market,
	})
	require.NoError(t, err)
	assert.Equal(t, "b2c8e1f0-aaaa-bbbb-cccc-000000000001", ack.ID)

	require.Len(t, orders, 1)
	var body map[string]any
	require.NoError(t, json.Unmarshal(orders[0], &body))
	assert.Equal(t, "IBIT", body["symbol"])
	assert.Equal(t, float64(17), body["qty"])
	assert.Equal(t, "buy", body["side"])
	assert.Equal(t, "market", body["type"])
	assert.Equal(t, "gtc", body["time_in_force"])
	assert.NotEmpty(t, body["client_order_id"])
	_, hasLimit := body["limit_price"]
	assert.False(t, hasLimit)
}

func TestPlaceOrder_LimitRequiresPrice(t *testing.T) {
	var orders [][]byte
	srv := newTestServer(t, "58.20", &orders)
	defer srv.Close()

	a := newTestAdapter(t, srv)
	_, err := a.PlaceOrder(context.Background(), venue.OrderRequest{
		Symbol: "IBIT", Side: venue.Sell, Quantity: 5, Type: venue.Limit,
	})
	assert.ErrorIs(t, err, venue.ErrInvalidOrderSpec)
	assert.Empty(t, orders)

	_, err = a.PlaceOrder(context.Background(), venue.OrderRequest{
		Symbol: "IBIT", Side: venue.Sell, Quantity: 5, Type: venue.Limit, Price: 60.5,
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	var body map[string]any
	require.NoError(t, json.Unmarshal(orders[0], &body))
	assert.Equal(t, 60.5, body["limit_price"])
}

func TestStreamHandler_PublishesQuoteEvents(t *testing.T) {
	feed := venue.NewQuoteFeed()
	var quotes []venue.Quote
	feed.Subscribe(func(q venue.Quote) { quotes = append(quotes, q) })

	h := newStreamHandler(Config{}, []string{"IBIT"}, feed)

	msg := []byte(`[
		{"T":"subscription","quotes":["IBIT"]},
		{"T":"q","S":"IBIT","bp":58.10,"ap":58.20},
		{"T":"q","S":"IBIT","bp":58.11,"ap":58.21}
	]`)
	require.NoError(t, h.OnMessage(context.Background(), msg))

	require.Len(t, quotes, 2)
	assert.Equal(t, venue.Quote{Symbol: "IBIT", Bid: 58.10, Ask: 58.20}, quotes[0])
	assert.Equal(t, venue.Quote{Symbol: "IBIT", Bid: 58.11, Ask: 58.21}, quotes[1])
}

func TestStartStream_RebuildsHandlerWhenIdle(t *testing.T) {
	srv := newTestServer(t, "58.20", nil)
	defer srv.Close()

	a := newTestAdapter(t, srv)
	a.cfg.StreamURL = "ws://127.0.0.1:1"

	require.Error(t, a.StartStream(context.Background(), []string{"IBIT"}))
	require.NotNil(t, a.handler)
	assert.Equal(t, []string{"IBIT"}, a.handler.symbols)

	// The first stream never came up, so a second call with a different
	// symbol list must subscribe that list, not the original one.
	require.Error(t, a.StartStream(context.Background(), []string{"MSTR"}))
	assert.Equal(t, []string{"MSTR"}, a.handler.symbols)
}

func TestStreamHandler_ErrorEventTerminates(t *testing.T) {
	h := newStreamHandler(Config{}, nil, venue.NewQuoteFeed())

	err := h.OnMessage(context.Background(), []byte(`[{"T":"error","code":406,"msg":"connection limit exceeded"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection limit exceeded")
}
