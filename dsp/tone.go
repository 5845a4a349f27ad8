package dsp

import (
	"math"
	"sync/atomic"
)

const (
	toneBassHz   = 100
	toneTrebleHz = 10000
	toneSlope    = 1.0
)

// Tone is a fixed-topology low-shelf (bass) + high-shelf (treble) stage
// per channel, at fixed 100 Hz / 10 kHz corner frequencies.
type Tone struct {
	bassBits, trebleBits atomic.Uint32
	dirty                atomic.Bool
	sampleRateBits       atomic.Uint32

	bassL, bassR     *Biquad
	trebleL, trebleR *Biquad
}

// NewTone builds a Tone stage at unity gain for the given sample rate.
func NewTone(sampleRate float64) *Tone {
	t := &Tone{
		bassL:   NewBiquad(),
		bassR:   NewBiquad(),
		trebleL: NewBiquad(),
		trebleR: NewBiquad(),
	}
	t.sampleRateBits.Store(math.Float32bits(float32(sampleRate)))
	t.recompute()
	return t
}

// SetSampleRate updates the canonical rate and marks the stage dirty.
func (t *Tone) SetSampleRate(sr float64) {
	t.sampleRateBits.Store(math.Float32bits(float32(sr)))
	t.dirty.Store(true)
}

// SetBassDB sets the bass shelf gain, clamped to [-12, 12] dB.
func (t *Tone) SetBassDB(db float64) {
	db = clamp(db, -12, 12)
	t.bassBits.Store(math.Float32bits(float32(db)))
	t.dirty.Store(true)
}

// SetTrebleDB sets the treble shelf gain, clamped to [-12, 12] dB.
func (t *Tone) SetTrebleDB(db float64) {
	db = clamp(db, -12, 12)
	t.trebleBits.Store(math.Float32bits(float32(db)))
	t.dirty.Store(true)
}

func (t *Tone) sampleRate() float64 {
	return float64(math.Float32frombits(t.sampleRateBits.Load()))
}

func (t *Tone) recompute() {
	sr := t.sampleRate()
	bassDB := float64(math.Float32frombits(t.bassBits.Load()))
	trebleDB := float64(math.Float32frombits(t.trebleBits.Load()))

	bass := LowShelfCoeffs(sr, toneBassHz, bassDB, toneSlope)
	treble := HighShelfCoeffs(sr, toneTrebleHz, trebleDB, toneSlope)
	t.bassL.SetCoeffs(bass)
	t.bassR.SetCoeffs(bass)
	t.trebleL.SetCoeffs(treble)
	t.trebleR.SetCoeffs(treble)
}

// ProcessStereoFrame applies bass then treble shelving per channel.
func (t *Tone) ProcessStereoFrame(l, r float32) (float32, float32) {
	if t.dirty.Swap(false) {
		t.recompute()
	}
	l = t.bassL.Process(l)
	r = t.bassR.Process(r)
	l = t.trebleL.Process(l)
	r = t.trebleR.Process(r)
	return l, r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Balance is a pure stateless gain stage: left/right are each attenuated
// so that panning hard to one side silences the other.
type Balance struct {
	bits atomic.Uint32
}

// NewBalance returns a centered balance stage.
func NewBalance() *Balance { return &Balance{} }

// Set sets the balance in [-1, 1]; -1 = only left, +1 = only right.
func (b *Balance) Set(v float64) {
	v = clamp(v, -1, 1)
	b.bits.Store(math.Float32bits(float32(v)))
}

// Get returns the current balance value.
func (b *Balance) Get() float64 {
	return float64(math.Float32frombits(b.bits.Load()))
}

// ProcessStereoFrame applies l_gain = min(1, 1-b), r_gain = min(1, 1+b).
func (b *Balance) ProcessStereoFrame(l, r float32) (float32, float32) {
	bal := b.Get()
	lGain := math.Min(1, 1-bal)
	rGain := math.Min(1, 1+bal)
	return l * float32(lGain), r * float32(rGain)
}

const crossfeedDelayMs = 0.3
const crossfeedLPHz = 700
const crossfeedLPQ = 0.7071068 // Butterworth Q = 1/sqrt(2)

// Crossfeed implements stereo expansion: each channel gets a low-passed,
// delayed dose of the opposite channel mixed in. amount=0 is a pure
// bypass with no write into the delay line and no filter call.
type Crossfeed struct {
	amountBits     atomic.Uint32
	sampleRateBits atomic.Uint32
	dirty          atomic.Bool

	delayL, delayR []float32
	pos            int

	lpL, lpR *Biquad
}

// NewCrossfeed builds a bypassed Crossfeed stage for the given sample rate.
func NewCrossfeed(sampleRate float64) *Crossfeed {
	c := &Crossfeed{lpL: NewBiquad(), lpR: NewBiquad()}
	c.sampleRateBits.Store(math.Float32bits(float32(sampleRate)))
	c.allocate(sampleRate)
	c.recompute()
	return c
}

func (c *Crossfeed) allocate(sampleRate float64) {
	n := int(math.Ceil(sampleRate * crossfeedDelayMs / 1000))
	if n < 1 {
		n = 1
	}
	c.delayL = make([]float32, n)
	c.delayR = make([]float32, n)
	c.pos = 0
}

// SetSampleRate rebuilds the delay line to the new length and marks dirty.
func (c *Crossfeed) SetSampleRate(sr float64) {
	c.sampleRateBits.Store(math.Float32bits(float32(sr)))
	c.allocate(sr)
	c.dirty.Store(true)
}

// SetAmount sets the crossfeed amount in [0, 1].
func (c *Crossfeed) SetAmount(amount float64) {
	amount = clamp(amount, 0, 1)
	c.amountBits.Store(math.Float32bits(float32(amount)))
}

func (c *Crossfeed) amount() float64 {
	return float64(math.Float32frombits(c.amountBits.Load()))
}

func (c *Crossfeed) sampleRate() float64 {
	return float64(math.Float32frombits(c.sampleRateBits.Load()))
}

func (c *Crossfeed) recompute() {
	lp := LowPassCoeffs(c.sampleRate(), crossfeedLPHz, crossfeedLPQ)
	c.lpL.SetCoeffs(lp)
	c.lpR.SetCoeffs(lp)
}

// ProcessStereoFrame mixes a low-passed, delayed dose of the opposite
// channel into each output channel.
func (c *Crossfeed) ProcessStereoFrame(l, r float32) (float32, float32) {
	amount := c.amount()
	if amount == 0 {
		return l, r
	}
	if c.dirty.Swap(false) {
		c.recompute()
	}

	n := len(c.delayL)
	delayedR := c.delayR[c.pos]
	delayedL := c.delayL[c.pos]
	c.delayL[c.pos] = l
	c.delayR[c.pos] = r
	c.pos = (c.pos + 1) % n

	outL := l + float32(amount)*c.lpL.Process(delayedR)
	outR := r + float32(amount)*c.lpR.Process(delayedL)
	return outL, outR
}
