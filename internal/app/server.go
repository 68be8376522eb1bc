package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/profitviews/crypto-stock/internal/synth"
	"github.com/profitviews/crypto-stock/internal/venue"
)

// Server exposes the trigger facade: small HTTP handlers that call into the
// coordinator and the monitor. It carries no state of its own.
type Server struct {
	boot   *Bootstrap
	engine *gin.Engine
}

// NewServer builds the HTTP facade over an initialized bootstrap.
func NewServer(boot *Bootstrap) *Server {
	if strings.ToUpper(boot.Config.Trading.Mode) != "LIVE" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{boot: boot, engine: gin.New()}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", s.health)

	api := s.engine.Group("/api")
	api.GET("/synthetics", s.listSynthetics)
	api.GET("/synthetics/:name/lot", s.syntheticLot)
	api.POST("/synthetics/:name/orders", s.placeSynthetic)
	api.GET("/premium", s.premium)
	api.GET("/venues/:venue/instruments/:symbol", s.instrument)

	return s
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": s.boot.Config.Trading.Mode})
}

func (s *Server) listSynthetics(c *gin.Context) {
	if s.boot.Coordinator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "synthetic trading unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"synthetics": s.boot.Coordinator.Table().Names()})
}

func (s *Server) syntheticLot(c *gin.Context) {
	if s.boot.Coordinator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "synthetic trading unavailable"})
		return
	}

	name := c.Param("name")
	spec, err := s.boot.Coordinator.Table().Lookup(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	lot, err := s.boot.Coordinator.Sizer().CommonLot(spec)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"synthetic": name, "commonLot": lot})
}

type syntheticOrderRequest struct {
	Side     string  `json:"side" binding:"required"`
	Quantity int64   `json:"quantity"`
	USD      float64 `json:"usd"`
}

func (s *Server) placeSynthetic(c *gin.Context) {
	if s.boot.Coordinator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "synthetic trading unavailable"})
		return
	}

	var req syntheticOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	side := venue.Side(strings.ToLower(req.Side))
	if side != venue.Buy && side != venue.Sell {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be buy or sell"})
		return
	}

	name := c.Param("name")
	ctx := c.Request.Context()

	var res *synth.Result
	var err error
	switch {
	case req.Quantity > 0:
		res, err = s.boot.Coordinator.ExecuteMarket(ctx, name, side, req.Quantity)
	case req.USD > 0:
		res, err = s.boot.Coordinator.ExecuteDollar(ctx, name, side, req.USD)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "either quantity or usd must be positive"})
		return
	}

	if err != nil {
		c.JSON(statusForExecution(err), gin.H{"error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

func statusForExecution(err error) int {
	switch {
	case errors.Is(err, synth.ErrUnknownSynthetic):
		return http.StatusNotFound
	case errors.Is(err, synth.ErrSizingRejected),
		errors.Is(err, venue.ErrBelowMinimumSize),
		errors.Is(err, venue.ErrInvalidOrderSpec):
		return http.StatusBadRequest
	default:
		// Leg failures and venue transport errors.
		return http.StatusBadGateway
	}
}

func (s *Server) premium(c *gin.Context) {
	if s.boot.Monitor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "premium monitor unavailable"})
		return
	}
	snap, ok := s.boot.Monitor.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no premium observation yet"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) instrument(c *gin.Context) {
	var v venue.Venue
	switch strings.ToLower(c.Param("venue")) {
	case "bitmex":
		if s.boot.BitMEX != nil {
			v = s.boot.BitMEX
		}
	case "oanda":
		if s.boot.OANDA != nil {
			v = s.boot.OANDA
		}
	case "alpaca":
		if s.boot.Alpaca != nil {
			v = s.boot.Alpaca
		}
	}
	if v == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown or unavailable venue"})
		return
	}

	symbol := c.Param("symbol")
	tick, err := v.Tick(symbol)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	lot, err := v.Lot(symbol)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"venue": v.Name(), "symbol": symbol, "tickSize": tick, "lotSize": lot})
}
