package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/profitviews/crypto-stock/internal/venue"
)

// maxAuthFrames bounds how many frames OnConnect will read while waiting
// for the authentication confirmation.
const maxAuthFrames = 5

// streamHandler consumes the Alpaca market-data stream. Authentication and
// subscription happen in-band after the handshake.
type streamHandler struct {
	cfg     Config
	symbols []string
	feed    *venue.QuoteFeed
}

func newStreamHandler(cfg Config, symbols []string, feed *venue.QuoteFeed) *streamHandler {
	return &streamHandler{cfg: cfg, symbols: symbols, feed: feed}
}

func (h *streamHandler) ID() string { return Name + ":quotes" }

func (h *streamHandler) URL() string { return h.cfg.StreamURL }

func (h *streamHandler) Header() http.Header { return nil }

// event is one element of the stream's array frames.
type event struct {
	T        string  `json:"T"`
	Msg      string  `json:"msg"`
	Code     int     `json:"code"`
	Symbol   string  `json:"S"`
	BidPrice float64 `json:"bp"`
	AskPrice float64 `json:"ap"`
}

// OnConnect authenticates, waits for the venue's confirmation, then
// subscribes to quotes. A rejected login surfaces here so the caller of
// Start sees it directly.
func (h *streamHandler) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	auth := map[string]string{
		"action": "auth",
		"key":    h.cfg.APIKey,
		"secret": h.cfg.SecretKey,
	}
	if err := conn.WriteJSON(auth); err != nil {
		return fmt.Errorf("send auth: %w", err)
	}

	authenticated := false
	for i := 0; i < maxAuthFrames && !authenticated; i++ {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read auth response: %w", err)
		}

		var events []event
		if err := json.Unmarshal(msg, &events); err != nil {
			return fmt.Errorf("decode auth response: %w", err)
		}
		for _, ev := range events {
			switch {
			case ev.T == "error":
				return fmt.Errorf("auth rejected: %s (code %d)", ev.Msg, ev.Code)
			case ev.T == "success" && ev.Msg == "authenticated":
				authenticated = true
			}
		}
	}
	if !authenticated {
		return fmt.Errorf("no auth confirmation after %d frames", maxAuthFrames)
	}

	sub := map[string]any{
		"action": "subscribe",
		"quotes": h.symbols,
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}
	return nil
}

// OnMessage publishes quote events. A venue error event terminates the
// stream; everything else (trade updates, subscription acks) is skipped.
func (h *streamHandler) OnMessage(ctx context.Context, msg []byte) error {
	var events []event
	if err := json.Unmarshal(msg, &events); err != nil {
		return fmt.Errorf("decode stream frame: %w", err)
	}

	for _, ev := range events {
		switch ev.T {
		case "q":
			h.feed.Publish(venue.Quote{Symbol: ev.Symbol, Bid: ev.BidPrice, Ask: ev.AskPrice})
		case "error":
			return fmt.Errorf("stream error: %s (code %d)", ev.Msg, ev.Code)
		}
	}
	return nil
}
