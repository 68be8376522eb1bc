package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/profitviews/crypto-stock/internal/venue"
)

// streamHandler consumes the OANDA pricing stream. Authentication rides on
// the handshake's Bearer header, so there is no in-band auth step.
type streamHandler struct {
	cfg     Config
	symbols []string
	feed    *venue.QuoteFeed
}

func newStreamHandler(cfg Config, symbols []string, feed *venue.QuoteFeed) *streamHandler {
	return &streamHandler{cfg: cfg, symbols: symbols, feed: feed}
}

func (h *streamHandler) ID() string { return Name + ":pricing" }

func (h *streamHandler) URL() string {
	return fmt.Sprintf("%s/v3/accounts/%s/pricing/stream?instruments=%s",
		h.cfg.StreamURL, h.cfg.AccountID, strings.Join(h.symbols, ","))
}

func (h *streamHandler) Header() http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	return header
}

func (h *streamHandler) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	return nil
}

type priceMessage struct {
	Instrument string `json:"instrument"`
	Bids       []struct {
		Price string `json:"price"`
	} `json:"bids"`
	Asks []struct {
		Price string `json:"price"`
	} `json:"asks"`
}

// OnMessage publishes price ticks. Frames without both book sides, such as
// heartbeats, are skipped.
func (h *streamHandler) OnMessage(ctx context.Context, msg []byte) error {
	var m priceMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		return fmt.Errorf("decode pricing frame: %w", err)
	}

	if len(m.Bids) == 0 || len(m.Asks) == 0 {
		return nil
	}

	bid, err := strconv.ParseFloat(m.Bids[0].Price, 64)
	if err != nil {
		return fmt.Errorf("parse bid for %s: %w", m.Instrument, err)
	}
	ask, err := strconv.ParseFloat(m.Asks[0].Price, 64)
	if err != nil {
		return fmt.Errorf("parse ask for %s: %w", m.Instrument, err)
	}

	h.feed.Publish(venue.Quote{Symbol: m.Instrument, Bid: bid, Ask: ask})
	return nil
}
