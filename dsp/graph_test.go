package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewGraphIsNearIdentityAtDefaults(t *testing.T) {
	g := NewGraph(48000, 10)
	for i := 0; i < 64; i++ {
		in := float32(0.5)
		l, r := g.ProcessStereoFrame(in, -in)
		assert.InDelta(t, in, l, 0.05)
		assert.InDelta(t, -in, r, 0.05)
	}
}

// TestGraphOutputAlwaysInUnitRange is the end-to-end "output safety"
// property: no matter how every stage is configured, the limiter at the
// end of the chain keeps output within [-1, 1].
func TestGraphOutputAlwaysInUnitRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := NewGraph(48000, 10)
		g.SetPreampDB(rapid.Float64Range(-24, 24).Draw(rt, "preamp"))
		g.Reverb.LoadPreset(PresetChurch)
		g.Spatializer.SetEnabled(true)
		g.AutoOrchestra()
		require.NoError(t, g.UserEQ.UpdateBand(0, 1000, 12, 1))

		for i := 0; i < 32; i++ {
			x := float32(rapid.Float64Range(-1, 1).Draw(rt, "x"))
			l, r := g.ProcessStereoFrame(x, -x)
			if l > 1 || l < -1 || r > 1 || r < -1 {
				rt.Fatalf("graph output out of [-1,1]: l=%v r=%v for x=%v", l, r, x)
			}
		}
	})
}

func TestAutoOrchestraPlacesSourcesAsymmetrically(t *testing.T) {
	g := NewGraph(48000, 10)
	g.AutoOrchestra()
	bassX, bassY, _ := g.Spatializer.Sources[Bass].position()
	vocalsX, vocalsY, _ := g.Spatializer.Sources[Vocals].position()
	assert.False(t, bassX == vocalsX && bassY == vocalsY)
}

func TestSetSampleRatePropagatesToAllNodes(t *testing.T) {
	g := NewGraph(44100, 10)
	g.SetSampleRate(96000)
	assert.Equal(t, 96000.0, g.SampleRate())
	assert.Equal(t, 96000.0, g.Reverb.sampleRate)
}
