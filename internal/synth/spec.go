// Package synth implements synthetic cross-venue instruments: a crypto
// derivative leg hedged by an FX leg, sized on a common lot and executed
// sequentially.
package synth

import "errors"

var (
	// ErrUnknownSynthetic means the requested synthetic is not in the table.
	ErrUnknownSynthetic = errors.New("unknown synthetic")
	// ErrSizingRejected means the requested quantity does not fit the
	// synthetic's common lot. Nothing was sent to any venue.
	ErrSizingRejected = errors.New("sizing rejected")
	// ErrLegAFailed means the crypto leg order was rejected. Nothing rests
	// on the FX venue.
	ErrLegAFailed = errors.New("crypto leg failed")
	// ErrLegBFailed means the FX leg order was rejected after the crypto leg
	// filled. The position is unhedged; the result carries both legs so the
	// operator can intervene.
	ErrLegBFailed = errors.New("fx leg failed")
)

// Spec names the two legs of one synthetic instrument.
type Spec struct {
	// Name is the synthetic's own symbol, e.g. "XBTEUR".
	Name string
	// Crypto is the derivative leg, placed first with the requested side.
	Crypto string
	// FX is the hedge leg, placed second with the opposite side.
	FX string
}

// Table maps synthetic names to their leg specs.
type Table map[string]Spec

// NewTable builds a table from specs, keyed by name.
func NewTable(specs ...Spec) Table {
	t := make(Table, len(specs))
	for _, s := range specs {
		t[s.Name] = s
	}
	return t
}

// Lookup resolves a synthetic name.
func (t Table) Lookup(name string) (Spec, error) {
	s, ok := t[name]
	if !ok {
		return Spec{}, ErrUnknownSynthetic
	}
	return s, nil
}

// Names returns the table's synthetic names.
func (t Table) Names() []string {
	out := make([]string, 0, len(t))
	for name := range t {
		out = append(out, name)
	}
	return out
}
