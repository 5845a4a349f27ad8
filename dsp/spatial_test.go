package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpatializerDisabledIsExactBypass(t *testing.T) {
	sp := NewSpatializer(48000)
	for i := 0; i < 16; i++ {
		in := float32(i) * 0.05
		l, r := sp.ProcessStereoFrame(in, -in)
		assert.Equal(t, in, l)
		assert.Equal(t, -in, r)
	}
}

func TestSpatializerEnabledProducesBinauralDifference(t *testing.T) {
	sp := NewSpatializer(48000)
	sp.SetEnabled(true)
	var l, r float32
	for i := 0; i < 8; i++ {
		l, r = sp.ProcessStereoFrame(1, 1)
	}
	assert.NotEqual(t, l, r, "sources placed off-center should not sum to identical L/R")
}

func TestSpatializerInactiveSourceContributesNothing(t *testing.T) {
	sp := NewSpatializer(48000)
	sp.SetEnabled(true)
	for _, s := range sp.Sources {
		s.SetActive(false)
	}
	sp.MarkDirty()
	l, r := sp.ProcessStereoFrame(1, 1)
	assert.Equal(t, float32(0), l)
	assert.Equal(t, float32(0), r)
}

func TestRingReadWrapsAround(t *testing.T) {
	ring := make([]float32, 4)
	ring[0], ring[1], ring[2], ring[3] = 10, 20, 30, 40
	assert.Equal(t, float32(40), ringRead(ring, 1, 2))
	assert.Equal(t, float32(30), ringRead(ring, 0, 2))
}
