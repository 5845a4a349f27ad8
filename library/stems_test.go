package library

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFallbackSeparatorReconstructsExactly is the spec's "Center-cancel
// reconstruction" property: summing the four fallback stems reproduces the
// original signal within 1e-6 for every sample.
func TestFallbackSeparatorReconstructsExactly(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const frames = 2000
	samples := make([]float32, frames*2)
	for i := range samples {
		samples[i] = float32(rng.Float64()*2 - 1)
	}

	stems, err := FallbackSeparator{}.Separate(samples, 2, nil)
	require.NoError(t, err)

	for i := range samples {
		sum := stems.Vocals[i] + stems.Drums[i] + stems.Bass[i] + stems.Other[i]
		assert.InDelta(t, samples[i], sum, 1e-6, "sample %d failed to reconstruct", i)
	}
}

// TestFallbackSeparatorHandlesMultichannelInput reproduces a 5.1 source:
// reconstruction must operate over the L/R pair only, and must not index
// past the end of the (stereo-sized) stem buffers.
func TestFallbackSeparatorHandlesMultichannelInput(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const frames = 500
	const channels = 6
	samples := make([]float32, frames*channels)
	for i := range samples {
		samples[i] = float32(rng.Float64()*2 - 1)
	}

	var stems Stems
	var err error
	require.NotPanics(t, func() {
		stems, err = FallbackSeparator{}.Separate(samples, channels, nil)
	})
	require.NoError(t, err)
	require.Len(t, stems.Vocals, frames*2)

	for i := 0; i < frames; i++ {
		l := samples[i*channels]
		r := samples[i*channels+1]
		sumL := stems.Vocals[i*2] + stems.Drums[i*2] + stems.Bass[i*2] + stems.Other[i*2]
		sumR := stems.Vocals[i*2+1] + stems.Drums[i*2+1] + stems.Bass[i*2+1] + stems.Other[i*2+1]
		assert.InDelta(t, l, sumL, 1e-6)
		assert.InDelta(t, r, sumR, 1e-6)
	}
}

func TestFallbackSeparatorRejectsMonoInput(t *testing.T) {
	_, err := FallbackSeparator{}.Separate([]float32{0, 0, 0}, 1, nil)
	assert.Error(t, err)
}

func TestFallbackSeparatorEmitsStartAndCompleteProgress(t *testing.T) {
	var calls []struct {
		pct   float32
		stage string
	}
	progress := func(pct float32, stage string) {
		calls = append(calls, struct {
			pct   float32
			stage string
		}{pct, stage})
	}

	_, err := FallbackSeparator{}.Separate([]float32{0, 0, 0, 0}, 2, progress)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, float32(0), calls[0].pct)
	assert.Equal(t, float32(1), calls[1].pct)
}

func TestStemCacheStoreLoadRoundTrip(t *testing.T) {
	cache, err := NewStemCache(t.TempDir())
	require.NoError(t, err)

	stems := Stems{
		Vocals: []float32{0.1, 0.2},
		Drums:  []float32{0.3, 0.4},
		Bass:   []float32{0.5, 0.6},
		Other:  []float32{0.7, 0.8},
	}

	assert.False(t, cache.Has("/music/track.mp3"))
	require.NoError(t, cache.Store("/music/track.mp3", stems))
	assert.True(t, cache.Has("/music/track.mp3"))

	loaded, ok := cache.Load("/music/track.mp3")
	require.True(t, ok)
	assert.InDeltaSlice(t, stems.Vocals, loaded.Vocals, 1e-7)
	assert.InDeltaSlice(t, stems.Other, loaded.Other, 1e-7)
}

func TestStemCacheLoadMissingReturnsNotOK(t *testing.T) {
	cache, err := NewStemCache(t.TempDir())
	require.NoError(t, err)

	_, ok := cache.Load("/music/nope.mp3")
	assert.False(t, ok)
}

func TestBassAlphaConstantMatchesDocumentedValue(t *testing.T) {
	assert.True(t, math.Abs(bassAlpha-0.02) < 1e-9)
}
