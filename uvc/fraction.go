package uvc

import "math"

// Fraction is a frame period expressed in seconds as a numerator over a
// denominator.
type Fraction struct {
	Numerator   uint32
	Denominator uint32
}

// intervalBase is the number of 100 ns interval units per second.
const intervalBase = 10000000

// SimplifyFraction reduces numerator/denominator using a continued
// fraction decomposition limited to terms terms, discarding terms whose
// value reaches threshold. This trades exactness for fractions small
// enough to present to callers (30000/1001 instead of 333667/10000000).
func SimplifyFraction(numerator, denominator uint32, terms, threshold uint32) Fraction {
	an := make([]uint32, terms)

	// Convert to a continued fraction.
	x, y := numerator, denominator
	var n uint32
	for n = 0; n < terms && y != 0; n++ {
		an[n] = x / y
		if an[n] >= threshold {
			if n < 2 {
				n++
			}
			break
		}
		x, y = y, x-an[n]*y
	}

	// Expand the simplified continued fraction back to a fraction.
	x, y = 0, 1
	for i := n; i > 0; i-- {
		x, y = y, an[i-1]*y+x
	}

	return Fraction{Numerator: y, Denominator: x}
}

// FractionToInterval converts a frame period fraction to a frame
// interval in 100 ns units, saturating on overflow.
func FractionToInterval(f Fraction) uint32 {
	if f.Denominator == 0 || f.Numerator/f.Denominator >= math.MaxUint32/intervalBase {
		return math.MaxUint32
	}

	// Halve the multiplier and denominator until the numerator product
	// fits in 32 bits.
	multiplier := uint32(intervalBase)
	denominator := f.Denominator
	for f.Numerator > math.MaxUint32/multiplier {
		multiplier /= 2
		denominator /= 2
	}

	if denominator == 0 {
		return 0
	}
	return f.Numerator * multiplier / denominator
}

// IntervalToFraction converts a frame interval in 100 ns units to a
// simplified frame period fraction.
func IntervalToFraction(interval uint32) Fraction {
	return SimplifyFraction(interval, intervalBase, 8, 333)
}
