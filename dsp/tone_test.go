package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBalanceEndpoints(t *testing.T) {
	b := NewBalance()

	b.Set(-1)
	l, r := b.ProcessStereoFrame(1, 1)
	assert.InDelta(t, 1, l, 1e-6)
	assert.InDelta(t, 0, r, 1e-6)

	b.Set(1)
	l, r = b.ProcessStereoFrame(1, 1)
	assert.InDelta(t, 0, l, 1e-6)
	assert.InDelta(t, 1, r, 1e-6)
}

func TestBalanceClampsOutOfRange(t *testing.T) {
	b := NewBalance()
	b.Set(5)
	assert.Equal(t, 1.0, b.Get())
	b.Set(-5)
	assert.Equal(t, -1.0, b.Get())
}

func TestBalanceCentered(t *testing.T) {
	b := NewBalance()
	l, r := b.ProcessStereoFrame(1, 1)
	assert.InDelta(t, 1, l, 1e-6)
	assert.InDelta(t, 1, r, 1e-6)
}

// TestCrossfeedZeroAmountIsExactBypass matches the crossfeed contract:
// amount=0 must not touch the delay line or run the filter, so output is
// bit-identical to input.
func TestCrossfeedZeroAmountIsExactBypass(t *testing.T) {
	c := NewCrossfeed(48000)
	for i := 0; i < 16; i++ {
		in := float32(i) * 0.01
		l, r := c.ProcessStereoFrame(in, -in)
		assert.Equal(t, in, l)
		assert.Equal(t, -in, r)
	}
}

func TestCrossfeedMixesOppositeChannel(t *testing.T) {
	c := NewCrossfeed(48000)
	c.SetAmount(1)
	for i := 0; i < 64; i++ {
		c.ProcessStereoFrame(1, -1)
	}
	l, r := c.ProcessStereoFrame(1, -1)
	assert.NotEqual(t, float32(1), l)
	assert.NotEqual(t, float32(-1), r)
}

func TestToneFlatAtZeroGainIsNearUnity(t *testing.T) {
	tone := NewTone(48000)
	for i := 0; i < 256; i++ {
		l, r := tone.ProcessStereoFrame(1, -1)
		assert.InDelta(t, 1, l, 0.05)
		assert.InDelta(t, -1, r, 0.05)
	}
}

func TestToneBassGainClamped(t *testing.T) {
	tone := NewTone(48000)
	tone.SetBassDB(100)
	assert.InDelta(t, 12, float64(math.Float32frombits(tone.bassBits.Load())), 1e-6)
	tone.SetBassDB(-100)
	assert.InDelta(t, -12, float64(math.Float32frombits(tone.bassBits.Load())), 1e-6)
}
