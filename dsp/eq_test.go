package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFlatEQHasNoMagnitudeChange is the spec's "Flat EQ = no change in
// magnitude" property: a default-constructed EQ's frequency response must
// read ~0 dB everywhere.
func TestFlatEQHasNoMagnitudeChange(t *testing.T) {
	eq := NewParametricEQ(10, 48000)
	points := eq.ComputeFrequencyResponse(64)
	require.Len(t, points, 64)
	for _, p := range points {
		assert.Lessf(t, math.Abs(p.DB), 0.1, "flat EQ should read ~0dB at %.1fHz, got %.4fdB", p.Hz, p.DB)
	}
}

func TestUpdateBandOutOfRange(t *testing.T) {
	eq := NewParametricEQ(10, 48000)
	err := eq.UpdateBand(10, 1000, 0, 1)
	var oob *ErrBandIndexOutOfRange
	require.ErrorAs(t, err, &oob)
	assert.Equal(t, 10, oob.Index)
	assert.Equal(t, 10, oob.N)
}

// TestUpdateBandDirtyIdempotence is the spec's "Dirty-flag idempotence"
// property: re-applying identical bit patterns must not mark dirty, but
// any changed value must.
func TestUpdateBandDirtyIdempotence(t *testing.T) {
	eq := NewParametricEQ(10, 48000)
	eq.ProcessStereoFrame(0, 0) // consume the initial construction-time dirty flag
	require.False(t, eq.dirty.Load())

	bands := eq.GetBands()
	b := bands[0]
	require.NoError(t, eq.UpdateBand(0, b.Freq, b.Gain, b.Q))
	assert.False(t, eq.dirty.Load(), "identical update must not mark dirty")

	require.NoError(t, eq.UpdateBand(0, b.Freq, b.Gain+1, b.Q))
	assert.True(t, eq.dirty.Load(), "changed gain must mark dirty")
}

func TestProcessStereoFrameClearsDirtyAndRecomputes(t *testing.T) {
	eq := NewParametricEQ(10, 48000)
	require.NoError(t, eq.UpdateBand(0, 1000, 6, 1))
	require.True(t, eq.dirty.Load())

	eq.ProcessStereoFrame(0, 0)
	assert.False(t, eq.dirty.Load())
}

// TestBoostAt1kHzRaisesResponse mirrors spec.md §8 scenario 3: a +12dB
// boost at 1kHz must show up as >+5dB somewhere in [800, 1200]Hz.
func TestBoostAt1kHzRaisesResponse(t *testing.T) {
	eq := NewParametricEQ(10, 48000)
	require.NoError(t, eq.UpdateBand(4, 1000, 12, 1))

	points := eq.ComputeFrequencyResponse(128)
	found := false
	for _, p := range points {
		if p.Hz >= 800 && p.Hz <= 1200 && p.DB > 5 {
			found = true
			break
		}
	}
	assert.True(t, found, "expected at least one sample in [800,1200]Hz above +5dB")
}

func TestParametricEQChannelsAreIndependent(t *testing.T) {
	eq := NewParametricEQ(10, 48000)
	require.NoError(t, eq.UpdateBand(0, 1000, 12, 1))

	for i := 0; i < 8; i++ {
		l, r := eq.ProcessStereoFrame(1, 0)
		assert.NotEqual(t, l, r, "differing channel inputs should stay independent")
	}
}

func TestDefaultBandCountClampedToRange(t *testing.T) {
	assert.Len(t, NewParametricEQ(1, 48000).GetBands(), MinBands)
	assert.Len(t, NewParametricEQ(100, 48000).GetBands(), MaxBands)
	assert.Len(t, NewParametricEQ(12, 48000).GetBands(), 12)
}

func TestFirstDefaultBandIs32Hz(t *testing.T) {
	eq := NewParametricEQ(MinBands, 48000)
	bands := eq.GetBands()
	assert.InDelta(t, 32, bands[0].Freq, 0.01)
}
