package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestBiquadIdentityPassthrough(t *testing.T) {
	b := NewBiquad()
	for _, x := range []float32{0, 1, -1, 0.5, -0.25} {
		assert.Equal(t, x, b.Process(x))
	}
}

func TestBiquadCoeffSwapPreservesState(t *testing.T) {
	b := NewBiquad()
	b.SetCoeffs(PeakingCoeffs(48000, 1000, 12, 1))
	b.Process(1)
	b.Process(0.5)
	zBefore1, zBefore2 := b.z1, b.z2

	b.SetCoeffs(PeakingCoeffs(48000, 2000, -6, 2))
	assert.Equal(t, zBefore1, b.z1, "z1 must survive a coefficient swap")
	assert.Equal(t, zBefore2, b.z2, "z2 must survive a coefficient swap")
}

func TestBiquadResetZeroesState(t *testing.T) {
	b := NewBiquad()
	b.SetCoeffs(PeakingCoeffs(48000, 1000, 12, 1))
	b.Process(1)
	b.Reset()
	assert.Zero(t, b.z1)
	assert.Zero(t, b.z2)
}

// TestBiquadStableForFiniteInput is the spec's "biquad stability" property:
// after any valid coefficient swap, Process(x) stays finite for all finite x.
func TestBiquadStableForFiniteInput(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sr := rapid.Float64Range(8000, 192000).Draw(rt, "sr")
		freq := rapid.Float64Range(10, sr/2-1).Draw(rt, "freq")
		gain := rapid.Float64Range(-24, 24).Draw(rt, "gain")
		q := rapid.Float64Range(0.1, 18).Draw(rt, "q")

		b := NewBiquad()
		b.SetCoeffs(PeakingCoeffs(sr, freq, gain, q))

		for i := 0; i < 64; i++ {
			x := float32(rapid.Float64Range(-1, 1).Draw(rt, "x"))
			y := b.Process(x)
			if isNonFinite(y) {
				rt.Fatalf("biquad output must stay finite, got %v for input %v", y, x)
			}
		}
	})
}

func isNonFinite(v float32) bool {
	return v != v || v > 3.4e38 || v < -3.4e38
}
