package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectStreamConfigExactMatchPrefersFloat(t *testing.T) {
	configs := []StreamConfig{
		{Channels: 2, MinRateHz: 44100, MaxRateHz: 44100, Format: FormatInt16},
		{Channels: 2, MinRateHz: 8000, MaxRateHz: 192000, Format: FormatFloat32},
	}
	sel, err := SelectStreamConfig(configs, 2, 48000)
	require.NoError(t, err)
	assert.Equal(t, FormatFloat32, sel.Config.Format)
	assert.Equal(t, 48000.0, sel.RateHz)
	assert.True(t, sel.ExactRate)
}

func TestSelectStreamConfigExactMatchNoFloatFallsBackToFirstMatch(t *testing.T) {
	configs := []StreamConfig{
		{Channels: 2, MinRateHz: 44100, MaxRateHz: 44100, Format: FormatInt16},
	}
	sel, err := SelectStreamConfig(configs, 2, 44100)
	require.NoError(t, err)
	assert.Equal(t, FormatInt16, sel.Config.Format)
	assert.True(t, sel.ExactRate)
}

func TestSelectStreamConfigFallsBackToMaxRateFloatConfig(t *testing.T) {
	configs := []StreamConfig{
		{Channels: 2, MinRateHz: 44100, MaxRateHz: 44100, Format: FormatInt16},
		{Channels: 2, MinRateHz: 8000, MaxRateHz: 96000, Format: FormatFloat32},
	}
	// Track channel count (6) matches nothing, so it falls to the
	// resampling fallback at the float config's max rate.
	sel, err := SelectStreamConfig(configs, 6, 192000)
	require.NoError(t, err)
	assert.Equal(t, 96000.0, sel.RateHz)
	assert.False(t, sel.ExactRate)
}

func TestSelectStreamConfigNoUsableConfig(t *testing.T) {
	configs := []StreamConfig{
		{Channels: 2, MinRateHz: 44100, MaxRateHz: 44100, Format: FormatInt16},
	}
	_, err := SelectStreamConfig(configs, 6, 192000)
	assert.ErrorIs(t, err, ErrNoOutputDevice)
}

func TestDefaultDeviceConfigsSelectsStereoFloat(t *testing.T) {
	sel, err := SelectStreamConfig(DefaultDeviceConfigs, 2, 48000)
	require.NoError(t, err)
	assert.Equal(t, FormatFloat32, sel.Config.Format)
	assert.Equal(t, 2, sel.Config.Channels)
}
