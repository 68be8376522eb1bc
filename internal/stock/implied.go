// Package stock relates an asset-holding equity to its underlying: the
// price of the underlying implied by the share price, and the premium the
// market pays over the underlying's own mark.
package stock

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Holdings describes an equity that holds a crypto asset on its books.
type Holdings struct {
	// Symbol is the equity's ticker.
	Symbol string
	// AssetHeld is how many units of the underlying the issuer holds.
	AssetHeld decimal.Decimal
	// SharesOutstanding is the issued share count.
	SharesOutstanding decimal.Decimal
}

// AssetPerShare returns how much of the underlying backs one share.
func (h Holdings) AssetPerShare() (decimal.Decimal, error) {
	if h.SharesOutstanding.IsZero() {
		return decimal.Zero, fmt.Errorf("%s: shares outstanding is zero", h.Symbol)
	}
	return h.AssetHeld.Div(h.SharesOutstanding), nil
}

// ImpliedAssetPrice returns the underlying price implied by a share price:
// the price per share divided by the underlying backing each share.
func (h Holdings) ImpliedAssetPrice(sharePrice decimal.Decimal) (decimal.Decimal, error) {
	perShare, err := h.AssetPerShare()
	if err != nil {
		return decimal.Zero, err
	}
	if perShare.IsZero() {
		return decimal.Zero, fmt.Errorf("%s: no underlying backing", h.Symbol)
	}
	return sharePrice.Div(perShare), nil
}

// Premium returns the fractional premium of the implied price over the
// underlying's mark: (implied - mark) / mark.
func Premium(implied, mark decimal.Decimal) (decimal.Decimal, error) {
	if mark.IsZero() {
		return decimal.Zero, fmt.Errorf("mark price is zero")
	}
	return implied.Sub(mark).Div(mark), nil
}
