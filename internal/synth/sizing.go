package synth

import (
	"context"
	"fmt"
	"math"

	"github.com/profitviews/crypto-stock/internal/venue"
	"github.com/profitviews/crypto-stock/pkg/quant"
)

// CryptoVenue extends the venue surface with per-contract USD pricing, which
// dollar sizing needs to value the derivative leg.
type CryptoVenue interface {
	venue.Venue
	ContractUSDPrice(ctx context.Context, symbol string) (float64, error)
}

// LegSizes is the outcome of sizing one synthetic request.
type LegSizes struct {
	CommonLot int64
	Crypto    int64
	FX        int64
}

// Sizer converts synthetic quantities into per-leg venue quantities.
type Sizer struct {
	crypto CryptoVenue
	fx     venue.Venue
}

// NewSizer creates a sizer over the two leg venues.
func NewSizer(crypto CryptoVenue, fx venue.Venue) *Sizer {
	return &Sizer{crypto: crypto, fx: fx}
}

// CommonLot returns the smallest quantity tradable on both legs, the least
// common multiple of the two lot sizes.
func (s *Sizer) CommonLot(spec Spec) (int64, error) {
	cryptoLot, err := s.crypto.Lot(spec.Crypto)
	if err != nil {
		return 0, err
	}
	fxLot, err := s.fx.Lot(spec.FX)
	if err != nil {
		return 0, err
	}
	return quant.LCM(cryptoLot, fxLot)
}

// Size converts a requested synthetic quantity into leg quantities. The
// request must be a whole multiple of the common lot; anything else is
// rejected before any order is built.
func (s *Sizer) Size(spec Spec, requested int64) (LegSizes, error) {
	common, err := s.CommonLot(spec)
	if err != nil {
		return LegSizes{}, err
	}
	if requested <= 0 || requested%common != 0 {
		return LegSizes{}, fmt.Errorf("%w: %d is not a positive multiple of common lot %d", ErrSizingRejected, requested, common)
	}

	cryptoLot, err := s.crypto.Lot(spec.Crypto)
	if err != nil {
		return LegSizes{}, err
	}
	fxLot, err := s.fx.Lot(spec.FX)
	if err != nil {
		return LegSizes{}, err
	}

	multiple := requested / common
	return LegSizes{
		CommonLot: common,
		Crypto:    multiple * cryptoLot,
		FX:        multiple * fxLot,
	}, nil
}

// SizeDollar converts a USD amount into leg quantities. The derivative leg
// takes as many whole lots as the amount affords at the per-lot USD price;
// the FX leg hedges the resulting USD notional at its own mark.
func (s *Sizer) SizeDollar(ctx context.Context, spec Spec, usd float64) (LegSizes, error) {
	common, err := s.CommonLot(spec)
	if err != nil {
		return LegSizes{}, err
	}

	cryptoLot, err := s.crypto.Lot(spec.Crypto)
	if err != nil {
		return LegSizes{}, err
	}
	contractUSD, err := s.crypto.ContractUSDPrice(ctx, spec.Crypto)
	if err != nil {
		return LegSizes{}, err
	}

	lotUSD := contractUSD * float64(cryptoLot)
	if lotUSD <= 0 {
		return LegSizes{}, fmt.Errorf("%s: non-positive lot value %g", spec.Crypto, lotUSD)
	}

	lots := int64(math.Floor(usd / lotUSD))
	if lots == 0 {
		return LegSizes{}, fmt.Errorf("%w: %s lot costs %.2f USD", venue.ErrBelowMinimumSize, spec.Crypto, lotUSD)
	}

	notional := float64(lots) * lotUSD
	fxQty, err := s.fx.StandardSize(ctx, spec.FX, notional)
	if err != nil {
		return LegSizes{}, err
	}

	return LegSizes{
		CommonLot: common,
		Crypto:    lots * cryptoLot,
		FX:        fxQty,
	}, nil
}
