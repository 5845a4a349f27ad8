package dsp

import (
	"math"
	"strings"
	"sync/atomic"
)

var combLengthsRef = [8]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
var allpassLengthsRef = [4]int{556, 441, 341, 225}

const (
	reverbRefRate      = 44100.0
	reverbStereoSpread = 23
	allpassFeedback    = 0.5
)

// ReverbPreset names a fixed set of the six reverb parameters.
type ReverbPreset struct {
	Name                                                          string
	RoomSize, Damping, PredelayMs, LowpassHz, Decay, WetMix float64
}

// Named reverb presets, grounded on the original core's preset table.
var (
	PresetStudio = ReverbPreset{Name: "Estudio", RoomSize: 0.3, Damping: 0.6, PredelayMs: 5, LowpassHz: 8000, Decay: 0.3, WetMix: 0.15}
	PresetLarge  = ReverbPreset{Name: "Sala Grande", RoomSize: 0.75, Damping: 0.4, PredelayMs: 20, LowpassHz: 6000, Decay: 0.6, WetMix: 0.3}
	PresetClub   = ReverbPreset{Name: "Club", RoomSize: 0.55, Damping: 0.5, PredelayMs: 12, LowpassHz: 7000, Decay: 0.45, WetMix: 0.25}
	PresetChurch = ReverbPreset{Name: "Iglesia", RoomSize: 0.9, Damping: 0.25, PredelayMs: 35, LowpassHz: 4500, Decay: 0.8, WetMix: 0.4}
)

// LookupPreset resolves a case-insensitive English/Spanish alias to a
// named preset.
func LookupPreset(name string) (ReverbPreset, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "estudio", "studio":
		return PresetStudio, true
	case "sala grande", "large room":
		return PresetLarge, true
	case "club":
		return PresetClub, true
	case "iglesia", "church":
		return PresetChurch, true
	default:
		return ReverbPreset{}, false
	}
}

func scaleLen(base int, sampleRate float64) int {
	n := int(float64(base) * sampleRate / reverbRefRate)
	if n < 1 {
		return 1
	}
	return n
}

type combFilter struct {
	buf         []float32
	pos         int
	feedback    float32
	damp1, damp2 float32
	state       float32
}

func newCombFilter(length int) *combFilter {
	return &combFilter{buf: make([]float32, maxInt(length, 1)), feedback: 0.5, damp1: 0.5, damp2: 0.5}
}

func (c *combFilter) setParams(feedback, damp float32) {
	c.feedback = feedback
	c.damp1 = damp
	c.damp2 = 1 - damp
}

func (c *combFilter) process(input float32) float32 {
	out := c.buf[c.pos]
	c.state = out*c.damp2 + c.state*c.damp1
	c.buf[c.pos] = input + c.state*c.feedback
	c.pos = (c.pos + 1) % len(c.buf)
	return out
}

type allpassFilter struct {
	buf []float32
	pos int
}

func newAllpassFilter(length int) *allpassFilter {
	return &allpassFilter{buf: make([]float32, maxInt(length, 1))}
}

func (a *allpassFilter) process(input float32) float32 {
	buffered := a.buf[a.pos]
	out := -input + buffered
	a.buf[a.pos] = input + buffered*allpassFeedback
	a.pos = (a.pos + 1) % len(a.buf)
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Reverb is a Freeverb-derived algorithmic reverb: eight parallel combs
// per channel feeding four series allpasses, a pre-delay line, and an
// output low-pass, mixed against the dry signal.
type Reverb struct {
	roomSizeBits, dampingBits, predelayMsBits, lowpassHzBits, decayBits, wetMixBits atomic.Uint32
	dirty                                                                          atomic.Bool
	sampleRate                                                                     float64

	combsL, combsR         []*combFilter
	allpassesL, allpassesR []*allpassFilter
	predelayL, predelayR   []float32
	predelayPos            int

	lpL, lpR *Biquad
}

// NewReverb builds a Reverb at unity room defaults (room 0.5, damping 0.5,
// predelay 10ms, lowpass 8kHz, decay 0.5, wet 0 — i.e. bypassed).
func NewReverb(sampleRate float64) *Reverb {
	r := &Reverb{sampleRate: clampSR(sampleRate), lpL: NewBiquad(), lpR: NewBiquad()}
	r.roomSizeBits.Store(math.Float32bits(0.5))
	r.dampingBits.Store(math.Float32bits(0.5))
	r.predelayMsBits.Store(math.Float32bits(10))
	r.lowpassHzBits.Store(math.Float32bits(8000))
	r.decayBits.Store(math.Float32bits(0.5))
	r.wetMixBits.Store(math.Float32bits(0))
	r.buildCombsAndAllpasses()
	r.lpL.SetCoeffs(LowPassCoeffs(r.sampleRate, 8000, 0.707))
	r.lpR.SetCoeffs(LowPassCoeffs(r.sampleRate, 8000, 0.707))
	r.predelayL = []float32{0}
	r.predelayR = []float32{0}
	r.dirty.Store(true)
	return r
}

func clampSR(sr float64) float64 {
	if sr < 8000 {
		return 8000
	}
	return sr
}

func (r *Reverb) buildCombsAndAllpasses() {
	r.combsL = make([]*combFilter, len(combLengthsRef))
	r.combsR = make([]*combFilter, len(combLengthsRef))
	for i, base := range combLengthsRef {
		r.combsL[i] = newCombFilter(scaleLen(base, r.sampleRate))
		r.combsR[i] = newCombFilter(scaleLen(base+reverbStereoSpread, r.sampleRate))
	}
	r.allpassesL = make([]*allpassFilter, len(allpassLengthsRef))
	r.allpassesR = make([]*allpassFilter, len(allpassLengthsRef))
	for i, base := range allpassLengthsRef {
		r.allpassesL[i] = newAllpassFilter(scaleLen(base, r.sampleRate))
		r.allpassesR[i] = newAllpassFilter(scaleLen(base+reverbStereoSpread, r.sampleRate))
	}
}

// SetSampleRate rebuilds comb/allpass lengths for the new rate.
func (r *Reverb) SetSampleRate(sr float64) {
	sr = clampSR(sr)
	if math.Abs(sr-r.sampleRate) > 1e-9 {
		r.sampleRate = sr
		r.buildCombsAndAllpasses()
		r.dirty.Store(true)
	}
}

func (r *Reverb) SetRoomSize(v float64) {
	r.roomSizeBits.Store(math.Float32bits(float32(clamp(v, 0, 1))))
	r.dirty.Store(true)
}
func (r *Reverb) SetDamping(v float64) {
	r.dampingBits.Store(math.Float32bits(float32(clamp(v, 0, 1))))
	r.dirty.Store(true)
}
func (r *Reverb) SetPredelayMs(v float64) {
	r.predelayMsBits.Store(math.Float32bits(float32(clamp(v, 0, 200))))
	r.dirty.Store(true)
}
func (r *Reverb) SetLowpassHz(v float64) {
	r.lowpassHzBits.Store(math.Float32bits(float32(clamp(v, 200, 20000))))
	r.dirty.Store(true)
}
func (r *Reverb) SetDecay(v float64) {
	r.decayBits.Store(math.Float32bits(float32(clamp(v, 0, 1))))
	r.dirty.Store(true)
}

// SetWetMix sets the wet/dry mix in [0,1]. Unlike the other parameters
// this does not require a coefficient recompute.
func (r *Reverb) SetWetMix(v float64) {
	r.wetMixBits.Store(math.Float32bits(float32(clamp(v, 0, 1))))
}

func (r *Reverb) RoomSize() float64   { return float64(math.Float32frombits(r.roomSizeBits.Load())) }
func (r *Reverb) Damping() float64    { return float64(math.Float32frombits(r.dampingBits.Load())) }
func (r *Reverb) PredelayMs() float64 { return float64(math.Float32frombits(r.predelayMsBits.Load())) }
func (r *Reverb) LowpassHz() float64  { return float64(math.Float32frombits(r.lowpassHzBits.Load())) }
func (r *Reverb) Decay() float64      { return float64(math.Float32frombits(r.decayBits.Load())) }
func (r *Reverb) WetMix() float64     { return float64(math.Float32frombits(r.wetMixBits.Load())) }

// LoadPreset applies a named preset's six parameters.
func (r *Reverb) LoadPreset(p ReverbPreset) {
	r.SetRoomSize(p.RoomSize)
	r.SetDamping(p.Damping)
	r.SetPredelayMs(p.PredelayMs)
	r.SetLowpassHz(p.LowpassHz)
	r.SetDecay(p.Decay)
	r.SetWetMix(p.WetMix)
}

func (r *Reverb) recalculate() {
	room := r.RoomSize()
	damp := r.Damping()
	decay := r.Decay()
	predelayMs := r.PredelayMs()
	lowpassHz := r.LowpassHz()

	feedback := clamp((room*0.28+0.7)*decay, 0, 0.98)
	for _, c := range r.combsL {
		c.setParams(float32(feedback), float32(damp))
	}
	for _, c := range r.combsR {
		c.setParams(float32(feedback), float32(damp))
	}

	n := int(math.Ceil(predelayMs / 1000 * r.sampleRate))
	if n < 1 {
		n = 1
	}
	if n != len(r.predelayL) {
		r.predelayL = make([]float32, n)
		r.predelayR = make([]float32, n)
		r.predelayPos = 0
	}

	lp := LowPassCoeffs(r.sampleRate, lowpassHz, 0.707)
	r.lpL.SetCoeffs(lp)
	r.lpR.SetCoeffs(lp)
}

// ProcessStereoFrame runs the Freeverb chain. wet_mix=0 is an exact
// bit-identical passthrough.
func (r *Reverb) ProcessStereoFrame(l, r2 float32) (float32, float32) {
	wet := r.WetMix()
	if wet == 0 {
		return l, r2
	}
	if r.dirty.Swap(false) {
		r.recalculate()
	}

	n := len(r.predelayL)
	preL := r.predelayL[r.predelayPos]
	preR := r.predelayR[r.predelayPos]
	r.predelayL[r.predelayPos] = l
	r.predelayR[r.predelayPos] = r2
	r.predelayPos = (r.predelayPos + 1) % n

	var wetL, wetR float32
	for _, c := range r.combsL {
		wetL += c.process(preL)
	}
	for _, c := range r.combsR {
		wetR += c.process(preR)
	}
	for _, a := range r.allpassesL {
		wetL = a.process(wetL)
	}
	for _, a := range r.allpassesR {
		wetR = a.process(wetR)
	}

	wetL = r.lpL.Process(wetL)
	wetR = r.lpR.Process(wetR)

	dry := float32(1 - wet)
	return l*dry + wetL*float32(wet), r2*dry + wetR*float32(wet)
}
