package dsp

import (
	"fmt"
	"math"
	"sync/atomic"
)

// MinBands and MaxBands bound the parametric EQ's band count.
const (
	MinBands = 10
	MaxBands = 15
)

// ErrBandIndexOutOfRange is returned by UpdateBand when the index is >= N.
type ErrBandIndexOutOfRange struct {
	Index, N int
}

func (e *ErrBandIndexOutOfRange) Error() string {
	return fmt.Sprintf("dsp: band index %d out of range (0..%d)", e.Index, e.N)
}

// bandParams is the atomically-exchanged state of a single EQ band. Each
// scalar is stored as a float32 bit-pattern in its own atomic word so
// control threads can write them without locking.
type bandParams struct {
	filterType atomic.Uint32
	freqBits   atomic.Uint32
	gainBits   atomic.Uint32
	qBits      atomic.Uint32
}

func (b *bandParams) load() (ft FilterType, freq, gain, q float64) {
	ft = FilterType(b.filterType.Load())
	freq = float64(math.Float32frombits(b.freqBits.Load()))
	gain = float64(math.Float32frombits(b.gainBits.Load()))
	q = float64(math.Float32frombits(b.qBits.Load()))
	return
}

// ParametricEQ is an N-band cascade of biquads per channel with lock-free
// band edits and deferred coefficient recompute.
type ParametricEQ struct {
	sampleRateBits atomic.Uint32
	dirty          atomic.Bool
	bands          []bandParams
	left, right    []*Biquad
}

// NewParametricEQ builds an EQ with the given band count (clamped into
// [MinBands, MaxBands]) and default frequencies spaced logarithmically
// between 32 Hz and 16 kHz (a single band sits at 32 Hz). All bands start
// peaking, gain 0, Q 1; coefficients are computed eagerly.
func NewParametricEQ(bands int, sampleRate float64) *ParametricEQ {
	if bands < MinBands {
		bands = MinBands
	}
	if bands > MaxBands {
		bands = MaxBands
	}

	eq := &ParametricEQ{
		bands: make([]bandParams, bands),
		left:  make([]*Biquad, bands),
		right: make([]*Biquad, bands),
	}
	eq.sampleRateBits.Store(math.Float32bits(float32(sampleRate)))

	freqs := defaultFrequencies(bands)
	for i := range eq.bands {
		eq.bands[i].filterType.Store(uint32(Peaking))
		eq.bands[i].freqBits.Store(math.Float32bits(float32(freqs[i])))
		eq.bands[i].gainBits.Store(math.Float32bits(0))
		eq.bands[i].qBits.Store(math.Float32bits(1))
		eq.left[i] = NewBiquad()
		eq.right[i] = NewBiquad()
	}
	eq.recompute(sampleRate)
	return eq
}

func defaultFrequencies(bands int) []float64 {
	freqs := make([]float64, bands)
	if bands == 1 {
		freqs[0] = 32
		return freqs
	}
	const lo, hi = 32.0, 16000.0
	logLo, logHi := math.Log(lo), math.Log(hi)
	for i := 0; i < bands; i++ {
		t := float64(i) / float64(bands-1)
		freqs[i] = math.Exp(logLo + t*(logHi-logLo))
	}
	return freqs
}

// SetSampleRate updates the canonical sample rate and marks the EQ dirty.
func (eq *ParametricEQ) SetSampleRate(sr float64) {
	eq.sampleRateBits.Store(math.Float32bits(float32(sr)))
	eq.dirty.Store(true)
}

func (eq *ParametricEQ) sampleRate() float64 {
	return float64(math.Float32frombits(eq.sampleRateBits.Load()))
}

// UpdateBand validates the index, sanitizes (f, g, q), and atomically
// swaps each field. The dirty flag is set only if any bit pattern
// actually changed, so repeated identical writes stay idempotent.
func (eq *ParametricEQ) UpdateBand(index int, freq, gainDB, q float64) error {
	if index < 0 || index >= len(eq.bands) {
		return &ErrBandIndexOutOfRange{Index: index, N: len(eq.bands)}
	}
	sr := eq.sampleRate()
	freq = sanitizeFreq(freq, sr)
	gainDB = sanitizeGain(gainDB)
	q = sanitizeQ(q)

	b := &eq.bands[index]
	changed := false
	if newBits := math.Float32bits(float32(freq)); b.freqBits.Swap(newBits) != newBits {
		changed = true
	}
	if newBits := math.Float32bits(float32(gainDB)); b.gainBits.Swap(newBits) != newBits {
		changed = true
	}
	if newBits := math.Float32bits(float32(q)); b.qBits.Swap(newBits) != newBits {
		changed = true
	}
	if changed {
		eq.dirty.Store(true)
	}
	return nil
}

// SetBandType changes a band's filter type. This is a structural change:
// spec.md's design notes allow a brief mutex here, but a plain atomic
// store is sufficient since FilterType already lives in a closed tag set
// read only through the dirty-flag handshake.
func (eq *ParametricEQ) SetBandType(index int, t FilterType) error {
	if index < 0 || index >= len(eq.bands) {
		return &ErrBandIndexOutOfRange{Index: index, N: len(eq.bands)}
	}
	if eq.bands[index].filterType.Swap(uint32(t)) != uint32(t) {
		eq.dirty.Store(true)
	}
	return nil
}

// recompute rebuilds every band's biquad coefficients from its current
// parameters, at the given sample rate.
func (eq *ParametricEQ) recompute(sr float64) {
	for i := range eq.bands {
		ft, freq, gain, q := eq.bands[i].load()
		c := ForType(ft, sr, freq, gain, q)
		eq.left[i].SetCoeffs(c)
		eq.right[i].SetCoeffs(c)
	}
}

// ProcessStereoFrame consumes the dirty flag (recomputing coefficients if
// it was set) then runs each channel through its own independent cascade.
func (eq *ParametricEQ) ProcessStereoFrame(l, r float32) (float32, float32) {
	if eq.dirty.Swap(false) {
		eq.recompute(eq.sampleRate())
	}
	for i := range eq.bands {
		l = eq.left[i].Process(l)
		r = eq.right[i].Process(r)
	}
	return l, r
}

// BandSnapshot is a read-only view of one band's parameters.
type BandSnapshot struct {
	Type FilterType
	Freq float64
	Gain float64
	Q    float64
}

// GetBands snapshots (type, freq, gain, q) for every band.
func (eq *ParametricEQ) GetBands() []BandSnapshot {
	out := make([]BandSnapshot, len(eq.bands))
	for i := range eq.bands {
		ft, freq, gain, q := eq.bands[i].load()
		out[i] = BandSnapshot{Type: ft, Freq: freq, Gain: gain, Q: q}
	}
	return out
}

// FrequencyResponsePoint is one sampled bin of a magnitude response curve.
type FrequencyResponsePoint struct {
	Hz float64
	DB float64
}

// ComputeFrequencyResponse evaluates the cascade's magnitude response at
// numPoints log-spaced frequencies from 20 Hz to min(sampleRate/2, 20kHz).
// It is for UI visualization only: it reads the current band snapshot
// directly rather than going through the dirty-flag handshake.
func (eq *ParametricEQ) ComputeFrequencyResponse(numPoints int) []FrequencyResponsePoint {
	if numPoints <= 0 {
		return nil
	}
	sr := eq.sampleRate()
	hiHz := sr / 2
	if hiHz > 20000 {
		hiHz = 20000
	}
	loHz := 20.0
	if hiHz < loHz {
		hiHz = loHz
	}
	logLo, logHi := math.Log(loHz), math.Log(hiHz)

	out := make([]FrequencyResponsePoint, numPoints)
	for i := 0; i < numPoints; i++ {
		var freq float64
		if numPoints == 1 {
			freq = loHz
		} else {
			t := float64(i) / float64(numPoints-1)
			freq = math.Exp(logLo + t*(logHi-logLo))
		}

		magSq := 1.0
		for b := range eq.bands {
			ft, bf, bg, bq := eq.bands[b].load()
			c := ForType(ft, sr, bf, bg, bq)
			magSq *= MagnitudeSquared(c, freq, sr)
		}
		db := 10 * math.Log10(math.Max(magSq, 1e-20))
		out[i] = FrequencyResponsePoint{Hz: freq, DB: db}
	}
	return out
}
