package synth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/profitviews/crypto-stock/internal/venue"
)

// State marks how far an execution progressed. There is no rollback: a
// failed FX leg leaves the execution at LegBEvaluating with the crypto fill
// on the books.
type State string

const (
	StateSizing         State = "sizing"
	StateLegAEvaluating State = "leg_a_evaluating"
	StateLegAComplete   State = "leg_a_complete"
	StateLegBEvaluating State = "leg_b_evaluating"
	StateLegBComplete   State = "leg_b_complete"
	StateDone           State = "done"
	StateAborted        State = "aborted"
)

// LegReport records one leg's order attempt.
type LegReport struct {
	Venue    string     `json:"venue"`
	Symbol   string     `json:"symbol"`
	Side     venue.Side `json:"side"`
	Quantity int64      `json:"quantity"`
	Placed   bool       `json:"placed"`
	OrderID  string     `json:"orderID,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Result reports one synthetic execution, successful or not. On partial
// failure both legs are present so the operator can see exactly what rests
// where.
type Result struct {
	Synthetic string     `json:"synthetic"`
	Side      venue.Side `json:"side"`
	State     State      `json:"state"`
	Sizes     LegSizes   `json:"sizes"`
	LegA      LegReport  `json:"legA"`
	LegB      LegReport  `json:"legB"`
}

// Coordinator executes synthetics as two sequential market orders: the
// crypto leg first with the requested side, then the FX leg with the
// opposite side. Legs are never placed concurrently and a completed leg is
// never unwound.
type Coordinator struct {
	table  Table
	sizer  *Sizer
	crypto CryptoVenue
	fx     venue.Venue
}

// NewCoordinator wires a coordinator over the two leg venues.
func NewCoordinator(table Table, crypto CryptoVenue, fx venue.Venue) *Coordinator {
	return &Coordinator{
		table:  table,
		sizer:  NewSizer(crypto, fx),
		crypto: crypto,
		fx:     fx,
	}
}

// Table returns the synthetic table.
func (c *Coordinator) Table() Table { return c.table }

// Sizer returns the leg sizer.
func (c *Coordinator) Sizer() *Sizer { return c.sizer }

// ExecuteMarket places a synthetic market order sized in synthetic units.
func (c *Coordinator) ExecuteMarket(ctx context.Context, name string, side venue.Side, quantity int64) (*Result, error) {
	return c.execute(ctx, name, side, func(spec Spec) (LegSizes, error) {
		return c.sizer.Size(spec, quantity)
	})
}

// ExecuteDollar places a synthetic market order sized by USD notional.
func (c *Coordinator) ExecuteDollar(ctx context.Context, name string, side venue.Side, usd float64) (*Result, error) {
	return c.execute(ctx, name, side, func(spec Spec) (LegSizes, error) {
		return c.sizer.SizeDollar(ctx, spec, usd)
	})
}

func (c *Coordinator) execute(ctx context.Context, name string, side venue.Side, size func(Spec) (LegSizes, error)) (*Result, error) {
	res := &Result{Synthetic: name, Side: side, State: StateSizing}

	spec, err := c.table.Lookup(name)
	if err != nil {
		res.State = StateAborted
		return res, fmt.Errorf("%w: %s", err, name)
	}

	sizes, err := size(spec)
	if err != nil {
		res.State = StateAborted
		return res, err
	}
	res.Sizes = sizes

	res.LegA = LegReport{
		Venue:    c.crypto.Name(),
		Symbol:   spec.Crypto,
		Side:     side,
		Quantity: sizes.Crypto,
	}
	res.LegB = LegReport{
		Venue:    c.fx.Name(),
		Symbol:   spec.FX,
		Side:     side.Opposite(),
		Quantity: sizes.FX,
	}

	res.State = StateLegAEvaluating
	ack, err := c.crypto.PlaceOrder(ctx, venue.OrderRequest{
		Symbol:   spec.Crypto,
		Side:     side,
		Quantity: sizes.Crypto,
		Type:     venue.Market,
	})
	if err != nil {
		res.LegA.Error = err.Error()
		return res, fmt.Errorf("%w: %v", ErrLegAFailed, err)
	}
	res.LegA.Placed = true
	res.LegA.OrderID = ack.ID
	res.State = StateLegAComplete

	slog.Info("crypto leg filled",
		"synthetic", name, "symbol", spec.Crypto, "side", side, "qty", sizes.Crypto, "orderID", ack.ID)

	res.State = StateLegBEvaluating
	ack, err = c.fx.PlaceOrder(ctx, venue.OrderRequest{
		Symbol:   spec.FX,
		Side:     side.Opposite(),
		Quantity: sizes.FX,
		Type:     venue.Market,
	})
	if err != nil {
		// The crypto fill stands; surface both legs for manual handling.
		res.LegB.Error = err.Error()
		slog.Error("fx leg failed, synthetic unhedged",
			"synthetic", name, "cryptoOrderID", res.LegA.OrderID, "err", err)
		return res, fmt.Errorf("%w: %v", ErrLegBFailed, err)
	}
	res.LegB.Placed = true
	res.LegB.OrderID = ack.ID
	res.State = StateLegBComplete

	slog.Info("fx leg filled",
		"synthetic", name, "symbol", spec.FX, "side", side.Opposite(), "qty", sizes.FX, "orderID", ack.ID)

	res.State = StateDone
	return res, nil
}
