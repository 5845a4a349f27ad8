// Package visualizer turns the engine's raw mono tap buffer into a
// windowed FFT magnitude spectrum for UI display.
package visualizer

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/madelynnblue/go-dsp/fft"
)

// FFTSize is the forward FFT length.
const FFTSize = 2048

// NumBins is the number of dB bins returned (the first 1024 FFT bins).
const NumBins = FFTSize / 2

// FloorDB is the magnitude floor returned when there isn't enough tap
// history yet to run a full transform.
const FloorDB = -100

// hannWindow is precomputed once; windows never change shape.
var hannWindow = func() [FFTSize]float64 {
	var w [FFTSize]float64
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(FFTSize-1)))
	}
	return w
}()

// ComputeSpectrum takes the most recent mono samples (oldest first) and
// returns NumBins dB magnitudes. If fewer than FFTSize samples are
// available, it returns a vector of FloorDB sized to NumBins.
func ComputeSpectrum(samples []float64) []float64 {
	out := make([]float64, NumBins)
	if len(samples) < FFTSize {
		for i := range out {
			out[i] = FloorDB
		}
		return out
	}

	windowed := make([]float64, FFTSize)
	start := len(samples) - FFTSize
	for i := 0; i < FFTSize; i++ {
		windowed[i] = samples[start+i] * hannWindow[i]
	}

	spectrum := fft.FFTReal(windowed)
	for i := 0; i < NumBins; i++ {
		mag := cmplx.Abs(spectrum[i]) / FFTSize
		db := 20 * math.Log10(math.Max(mag, 1e-10))
		out[i] = db
	}
	return out
}

// Tap is a bounded mono sample history plus an instantaneous peak tracker.
// The audio callback appends to it every frame; the control thread reads
// it (via Snapshot) to compute a spectrum. Guarded by a mutex held only
// briefly — the audio thread uses TryAppend, a non-blocking best-effort
// write, per the engine's "skip update if lock contested" policy.
type Tap struct {
	mu    sync.Mutex
	buf   []float64 // fixed-size ring, indexed mod len(buf)
	next  int        // write position of the next sample
	count int        // number of valid samples, <= len(buf)
	peak  float64
}

// NewTap builds a Tap retaining up to capacity mono samples.
func NewTap(capacity int) *Tap {
	return &Tap{buf: make([]float64, capacity)}
}

// Append adds a mono sample and updates the peak, blocking briefly for
// the mutex. Safe to call from a control thread (e.g. tests).
func (t *Tap) Append(sample float64) {
	t.mu.Lock()
	t.appendLocked(sample)
	t.mu.Unlock()
}

// TryAppend is the audio-thread entry point: it appends if the lock is
// free, and silently drops the sample otherwise rather than blocking.
func (t *Tap) TryAppend(sample float64) {
	if t.mu.TryLock() {
		t.appendLocked(sample)
		t.mu.Unlock()
	}
}

func (t *Tap) appendLocked(sample float64) {
	if len(t.buf) == 0 {
		return
	}
	t.buf[t.next] = sample
	t.next = (t.next + 1) % len(t.buf)
	if t.count < len(t.buf) {
		t.count++
	}
	if abs := math.Abs(sample); abs > t.peak {
		t.peak = abs
	}
}

// Snapshot returns a copy of the current sample history, oldest first,
// and resets the peak tracker, returning its pre-reset value.
func (t *Tap) Snapshot() ([]float64, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]float64, t.count)
	if t.count < len(t.buf) {
		copy(out, t.buf[:t.count])
	} else {
		oldest := t.next // buffer full: next write lands on the oldest sample
		n := copy(out, t.buf[oldest:])
		copy(out[n:], t.buf[:oldest])
	}
	peak := t.peak
	t.peak = 0
	return out, peak
}
