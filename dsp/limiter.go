package dsp

import "math"

// LimiterThresholdDB is the fixed soft-knee threshold, ≈ −0.1 dBFS.
const LimiterThresholdDB = -0.1

// limiterThreshold is 10^(LimiterThresholdDB/20).
var limiterThreshold = float32(math.Pow(10, LimiterThresholdDB/20))

// SoftLimit applies a stateless tanh-like knee above LimiterThresholdDB.
// |x| at or below the threshold passes unchanged; above it, the excess is
// compressed so the output never exceeds unity magnitude.
func SoftLimit(x float32) float32 {
	ax := x
	sign := float32(1)
	if ax < 0 {
		ax = -ax
		sign = -1
	}
	if ax <= limiterThreshold {
		return x
	}
	excess := ax - limiterThreshold
	headroom := 1 - limiterThreshold
	compressed := limiterThreshold + excess/(1+excess/headroom)
	if compressed > 1 {
		compressed = 1
	}
	return sign * compressed
}

// Limiter is a thin stateless wrapper so it composes as a graph node
// alongside the stateful stages.
type Limiter struct{}

// NewLimiter returns a Limiter. It holds no state: the threshold is fixed.
func NewLimiter() *Limiter { return &Limiter{} }

// ProcessStereoFrame applies SoftLimit independently to each channel.
func (lm *Limiter) ProcessStereoFrame(l, r float32) (float32, float32) {
	return SoftLimit(l), SoftLimit(r)
}
