package player

import "powerline/errs"

// SampleFormat tags a device-advertised output sample format.
type SampleFormat int

const (
	FormatFloat32 SampleFormat = iota
	FormatInt16
	FormatUint16
)

// StreamConfig is one device-advertised output configuration.
type StreamConfig struct {
	Channels   int
	MinRateHz  float64
	MaxRateHz  float64
	Format     SampleFormat
}

func (c StreamConfig) supportsRate(rate float64) bool {
	return rate >= c.MinRateHz && rate <= c.MaxRateHz
}

// SelectedStreamConfig is the outcome of SelectStreamConfig.
type SelectedStreamConfig struct {
	Config  StreamConfig
	RateHz  float64
	ExactRate bool
}

// ErrNoOutputDevice is returned when no advertised configuration can serve
// the requested track at all, even as a fallback.
var ErrNoOutputDevice = errs.New(errs.DSP, "no usable output device configuration")

// SelectStreamConfig picks a device output configuration for a track with
// the given channel count and sample rate, preferring (in order):
//
//  1. a config whose channel count matches the track AND whose rate range
//     contains the track's rate — among those, prefer float32 format;
//  2. any float32-preferring config, run at the device's maximum rate, as
//     a resampling fallback.
//
// Fails with ErrNoOutputDevice if neither exists.
func SelectStreamConfig(configs []StreamConfig, trackChannels int, trackRateHz float64) (SelectedStreamConfig, error) {
	var bestExact *StreamConfig
	for i := range configs {
		c := configs[i]
		if c.Channels != trackChannels || !c.supportsRate(trackRateHz) {
			continue
		}
		if bestExact == nil {
			bestExact = &configs[i]
		}
		if c.Format == FormatFloat32 {
			return SelectedStreamConfig{Config: c, RateHz: trackRateHz, ExactRate: true}, nil
		}
	}
	if bestExact != nil {
		return SelectedStreamConfig{Config: *bestExact, RateHz: trackRateHz, ExactRate: true}, nil
	}

	var fallback *StreamConfig
	for i := range configs {
		c := configs[i]
		if c.Format != FormatFloat32 {
			continue
		}
		if fallback == nil || c.MaxRateHz > fallback.MaxRateHz {
			fallback = &configs[i]
		}
	}
	if fallback != nil {
		return SelectedStreamConfig{Config: *fallback, RateHz: fallback.MaxRateHz, ExactRate: false}, nil
	}

	return SelectedStreamConfig{}, ErrNoOutputDevice
}

// DefaultDeviceConfigs describes the configurations this core's output
// backend (github.com/gopxl/beep/v2's speaker, backed by the host's
// default device) is assumed to advertise: a wide-range float32 stereo
// config plus a fixed-44.1kHz fallback, since the underlying library
// offers no device-enumeration API of its own.
var DefaultDeviceConfigs = []StreamConfig{
	{Channels: 2, MinRateHz: 8000, MaxRateHz: 192000, Format: FormatFloat32},
	{Channels: 1, MinRateHz: 8000, MaxRateHz: 192000, Format: FormatFloat32},
	{Channels: 2, MinRateHz: 44100, MaxRateHz: 44100, Format: FormatInt16},
}
