package visualizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSpectrumFloorWhenNotEnoughHistory(t *testing.T) {
	samples := make([]float64, FFTSize-1)
	out := ComputeSpectrum(samples)
	require.Len(t, out, NumBins)
	for _, v := range out {
		assert.Equal(t, float64(FloorDB), v)
	}
}

func TestComputeSpectrumFindsDominantBin(t *testing.T) {
	const sampleRate = 48000.0
	const freq = 1000.0
	samples := make([]float64, FFTSize*2)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}

	out := ComputeSpectrum(samples)
	require.Len(t, out, NumBins)

	binHz := sampleRate / FFTSize
	expectedBin := int(freq / binHz)

	maxBin, maxVal := 0, out[0]
	for i, v := range out {
		if v > maxVal {
			maxVal, maxBin = v, i
		}
	}
	assert.InDelta(t, expectedBin, maxBin, 2, "dominant bin should land near the 1kHz tone")
}

func TestNewTapAppendAndSnapshot(t *testing.T) {
	tap := NewTap(4)
	tap.Append(0.1)
	tap.Append(-0.5)
	tap.Append(0.2)

	samples, peak := tap.Snapshot()
	assert.Equal(t, []float64{0.1, -0.5, 0.2}, samples)
	assert.Equal(t, 0.5, peak)
}

func TestTapEvictsOldestOnOverflow(t *testing.T) {
	tap := NewTap(3)
	tap.Append(1)
	tap.Append(2)
	tap.Append(3)
	tap.Append(4)

	samples, _ := tap.Snapshot()
	assert.Equal(t, []float64{2, 3, 4}, samples)
}

func TestTapSnapshotResetsPeak(t *testing.T) {
	tap := NewTap(4)
	tap.Append(0.9)
	_, peak1 := tap.Snapshot()
	assert.Equal(t, 0.9, peak1)

	_, peak2 := tap.Snapshot()
	assert.Equal(t, 0.0, peak2)
}

func TestTryAppendDoesNotBlockUnderContention(t *testing.T) {
	tap := NewTap(4)
	tap.mu.Lock()
	tap.TryAppend(1.0) // should drop silently, not deadlock
	tap.mu.Unlock()

	samples, _ := tap.Snapshot()
	assert.Empty(t, samples)
}
