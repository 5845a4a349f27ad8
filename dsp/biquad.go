// Package dsp implements the stereo processing chain: biquad filters, the
// RBJ coefficient library, the parametric equalizer, tone/balance/
// crossfeed, reverb, the binaural spatializer, the soft limiter, and the
// graph that composes them.
package dsp

// Coeffs holds a normalized biquad transfer-function numerator/denominator
// (a0 already divided out).
type Coeffs struct {
	B0, B1, B2 float32
	A1, A2     float32
}

// IdentityCoeffs passes a signal through unchanged.
var IdentityCoeffs = Coeffs{B0: 1}

// Biquad is a stateful second-order IIR filter in transposed Direct Form
// II. Swapping Coeffs never resets the state variables z1/z2, so
// parameter changes never click.
type Biquad struct {
	c      Coeffs
	z1, z2 float32
}

// NewBiquad returns a Biquad initialized to the identity transfer function.
func NewBiquad() *Biquad {
	return &Biquad{c: IdentityCoeffs}
}

// SetCoeffs swaps the active coefficients without touching filter state.
func (b *Biquad) SetCoeffs(c Coeffs) {
	b.c = c
}

// Coeffs returns the currently active coefficients.
func (b *Biquad) Coeffs() Coeffs { return b.c }

// Reset zeroes the filter's internal state.
func (b *Biquad) Reset() {
	b.z1, b.z2 = 0, 0
}

// Process filters one sample through the transposed Direct Form II
// recurrence:
//
//	y  = b0*x + z1
//	z1 = b1*x - a1*y + z2
//	z2 = b2*x - a2*y
func (b *Biquad) Process(x float32) float32 {
	y := b.c.B0*x + b.z1
	b.z1 = b.c.B1*x - b.c.A1*y + b.z2
	b.z2 = b.c.B2*x - b.c.A2*y
	return y
}
