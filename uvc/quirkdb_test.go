package uvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuirksForKnownModel(t *testing.T) {
	quirks := QuirksFor(0x1c4f, 0x3000)
	assert.True(t, quirks.Has(QuirkProbeExtraFields))
	assert.True(t, quirks.Has(QuirkIgnoreSelectorUnit))
	assert.False(t, quirks.Has(QuirkReduceMemUsage))
}

func TestQuirksForUnknownModel(t *testing.T) {
	assert.Zero(t, QuirksFor(0xffff, 0xffff))
}

func TestRegisterQuirks(t *testing.T) {
	RegisterQuirks(0x1234, 0x5678, QuirkReduceMemUsage)
	assert.True(t, QuirksFor(0x1234, 0x5678).Has(QuirkReduceMemUsage))

	// Registration replaces rather than merges.
	RegisterQuirks(0x1234, 0x5678, QuirkProbeExtraFields)
	assert.False(t, QuirksFor(0x1234, 0x5678).Has(QuirkReduceMemUsage))
}
