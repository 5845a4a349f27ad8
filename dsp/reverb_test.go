package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverbZeroWetIsExactBypass(t *testing.T) {
	r := NewReverb(48000)
	for i := 0; i < 32; i++ {
		in := float32(i) * 0.03
		l, r2 := r.ProcessStereoFrame(in, -in)
		assert.Equal(t, in, l)
		assert.Equal(t, -in, r2)
	}
}

func TestReverbLoadPresetAddsEnergy(t *testing.T) {
	r := NewReverb(48000)
	r.LoadPreset(PresetLarge)
	assert.Equal(t, float64(float32(PresetLarge.WetMix)), r.WetMix())
	assert.Equal(t, PresetLarge.RoomSize, r.RoomSize())

	var lastL, lastR float32
	for i := 0; i < 4096; i++ {
		in := float32(0)
		if i == 0 {
			in = 1
		}
		lastL, lastR = r.ProcessStereoFrame(in, in)
	}
	assert.NotEqual(t, float32(0), lastL, "an impulse should still produce reverb tail energy")
	_ = lastR
}

func TestLookupPresetAliases(t *testing.T) {
	for _, name := range []string{"estudio", "Studio", "CLUB", "iglesia", "Church", "Sala Grande"} {
		_, ok := LookupPreset(name)
		require.Truef(t, ok, "expected alias %q to resolve", name)
	}
	_, ok := LookupPreset("nonexistent")
	assert.False(t, ok)
}

func TestReverbSampleRateChangeRebuildsLines(t *testing.T) {
	r := NewReverb(44100)
	r.SetSampleRate(96000)
	assert.Equal(t, 96000.0, r.sampleRate)
	assert.Greater(t, len(r.combsL[0].buf), 0)
}
