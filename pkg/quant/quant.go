package quant

import (
	"fmt"
	"math"
)

// GCD returns the greatest common divisor of a and b.
// Negative inputs are treated by absolute value; GCD(0, 0) = 0.
func GCD(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of a and b.
// It errors on non-positive inputs and on int64 overflow: lot sizes are
// venue metadata and must never be silently truncated.
func LCM(a, b int64) (int64, error) {
	if a <= 0 || b <= 0 {
		return 0, fmt.Errorf("lcm requires positive inputs, got %d and %d", a, b)
	}
	g := GCD(a, b)
	q := a / g
	if q > math.MaxInt64/b {
		return 0, fmt.Errorf("lcm(%d, %d) overflows int64", a, b)
	}
	return q * b, nil
}

// RoundTo rounds value to the nearest exact multiple of increment.
func RoundTo(value, increment float64) float64 {
	if increment == 0 {
		return value
	}
	return math.Round(value/increment) * increment
}

// FloorTo rounds value down to an exact multiple of increment.
func FloorTo(value, increment float64) float64 {
	if increment == 0 {
		return value
	}
	return math.Floor(value/increment) * increment
}
