package venue

import "errors"

var (
	// ErrCatalogUnavailable means the venue's instrument catalog could not be
	// fetched. Fatal to adapter construction: no instrument data, no adapter.
	ErrCatalogUnavailable = errors.New("instrument catalog unavailable")

	// ErrUnknownSymbol is a local catalog lookup miss. Recoverable; callers
	// should validate their input.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrInvalidOrderSpec flags an unsupported order shape (e.g. a limit
	// order without a price). Raised before any network call.
	ErrInvalidOrderSpec = errors.New("invalid order specification")

	// ErrBelowMinimumSize means the requested fiat amount buys less than one
	// lot. A business-rule rejection, not a system fault.
	ErrBelowMinimumSize = errors.New("amount below minimum order size")
)
