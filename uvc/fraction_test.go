package uvc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimplifyFraction(t *testing.T) {
	tests := []struct {
		name     string
		num, den uint32
		want     Fraction
	}{
		{"30 fps", 333333, 10000000, Fraction{1, 30}},
		{"15 fps", 666666, 10000000, Fraction{1, 15}},
		{"60 fps", 166666, 10000000, Fraction{1, 60}},
		{"already simple", 1, 30, Fraction{1, 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimplifyFraction(tt.num, tt.den, 8, 333)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFractionToInterval(t *testing.T) {
	tests := []struct {
		name string
		f    Fraction
		want uint32
	}{
		{"30 fps", Fraction{1, 30}, 333333},
		{"15 fps", Fraction{1, 15}, 666666},
		{"1 fps", Fraction{1, 1}, 10000000},
		{"zero denominator saturates", Fraction{1, 0}, math.MaxUint32},
		{"overflow saturates", Fraction{math.MaxUint32, 1}, math.MaxUint32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FractionToInterval(tt.f))
		})
	}
}

func TestIntervalToFractionRoundTrip(t *testing.T) {
	for _, interval := range []uint32{166666, 333333, 400000, 500000, 666666, 1000000} {
		f := IntervalToFraction(interval)
		back := FractionToInterval(f)

		// Simplification is lossy by design; the round trip must stay
		// within one interval unit per simplification step.
		diff := int64(back) - int64(interval)
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, int64(40), "interval %d -> %v -> %d", interval, f, back)
	}
}

func TestFourCCString(t *testing.T) {
	assert.Equal(t, "YUYV", FormatYUYV.String())
	assert.Equal(t, "MJPG", FormatMJPEG.String())
	assert.Equal(t, "....", FourCC(0).String())
}
