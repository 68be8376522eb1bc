package infra

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// StreamHandler defines venue-specific logic for a StreamWorker.
type StreamHandler interface {
	ID() string
	URL() string
	// Header returns HTTP headers sent with the websocket handshake
	// (e.g. a Bearer token). May return nil.
	Header() http.Header
	// OnConnect runs after the handshake, before the read loop. Venues that
	// authenticate or subscribe in-band do it here.
	OnConnect(ctx context.Context, conn *websocket.Conn) error
	// OnMessage handles one inbound frame. Returning a non-nil error
	// terminates the stream.
	OnMessage(ctx context.Context, msg []byte) error
}

// StreamWorker manages the lifecycle of one long-lived WebSocket stream.
//
// A worker runs at most one stream at a time; starting a running worker is a
// logged no-op. There is no automatic reconnect: any read error, decode
// failure, or venue error message terminates the stream and the worker goes
// back to not-running. Callers wanting resilience call Start again.
type StreamWorker struct {
	handler StreamHandler

	mu      sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewStreamWorker creates a worker for the given handler.
func NewStreamWorker(handler StreamHandler) *StreamWorker {
	return &StreamWorker{handler: handler}
}

// Running reports whether a stream is currently active.
func (w *StreamWorker) Running() bool {
	return w.running.Load()
}

// Start dials the venue, runs OnConnect, and spawns the read loop.
// Dial and authentication failures surface to the caller; once Start
// returns nil the stream runs until the connection dies or Stop is called.
func (w *StreamWorker) Start(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		slog.Info("stream already running", "id", w.handler.ID())
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.handler.URL(), w.handler.Header())
	if err != nil {
		w.running.Store(false)
		return fmt.Errorf("dial %s: %w", w.handler.ID(), err)
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	if err := w.handler.OnConnect(ctx, conn); err != nil {
		w.close()
		w.running.Store(false)
		return fmt.Errorf("connect %s: %w", w.handler.ID(), err)
	}

	slog.Info("stream connected", "id", w.handler.ID())

	w.wg.Add(1)
	go w.readLoop(ctx)
	return nil
}

// Stop closes the connection; the read loop notices and exits.
// Stopping is cooperative, there is no forcible interrupt.
func (w *StreamWorker) Stop() {
	w.close()
	w.wg.Wait()
}

func (w *StreamWorker) readLoop(ctx context.Context) {
	defer w.wg.Done()
	defer w.running.Store(false)
	defer w.close()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stream stopped", "id", w.handler.ID())
			return
		default:
		}

		w.mu.RLock()
		c := w.conn
		w.mu.RUnlock()
		if c == nil {
			return
		}

		_, msg, err := c.ReadMessage()
		if err != nil {
			slog.Warn("stream closed", "id", w.handler.ID(), "err", err)
			return
		}

		if err := w.handler.OnMessage(ctx, msg); err != nil {
			slog.Warn("stream terminated by handler", "id", w.handler.ID(), "err", err)
			return
		}
	}
}

// Write sends a frame, serializing concurrent writers.
func (w *StreamWorker) Write(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	c := w.conn
	w.mu.RUnlock()

	if c == nil {
		return fmt.Errorf("stream %s not connected", w.handler.ID())
	}
	return c.WriteMessage(msgType, data)
}

func (w *StreamWorker) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
}
