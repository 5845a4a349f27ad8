package dsp

import (
	"math"
	"sync/atomic"
)

// preamp applies a fixed linear gain derived from a dB value, stored as an
// atomic bit-pattern so control threads can update it lock-free.
type preamp struct {
	dbBits atomic.Uint32
}

func newPreamp() *preamp { return &preamp{} }

// SetDB sets the pre-amp gain in dB, clamped to [-24, 24].
func (p *preamp) SetDB(db float64) {
	db = clamp(db, -24, 24)
	p.dbBits.Store(math.Float32bits(float32(db)))
}

// DB returns the current pre-amp gain in dB.
func (p *preamp) DB() float64 {
	return float64(math.Float32frombits(p.dbBits.Load()))
}

func (p *preamp) process(l, r float32) (float32, float32) {
	gain := float32(math.Pow(10, p.DB()/20))
	return l * gain, r * gain
}

// Graph composes the full per-frame stereo chain in the fixed order:
//
//	pre-amp -> tone -> auto-EQ -> user-EQ -> balance -> expansion ->
//	reverb -> spatializer -> limiter
//
// AutoEQ and UserEQ are independent ParametricEQ instances: AutoEQ is
// reserved for algorithmic/auto-generated curves (e.g. loudness
// compensation), UserEQ for listener-authored bands. set_sample_rate fans
// out to every stateful node.
type Graph struct {
	sampleRate float64

	Preamp      *preamp
	Tone        *Tone
	AutoEQ      *ParametricEQ
	UserEQ      *ParametricEQ
	Balance     *Balance
	Crossfeed   *Crossfeed
	Reverb      *Reverb
	Spatializer *Spatializer
	Limiter     *Limiter
}

// NewGraph builds the full chain at the given sample rate and EQ band
// count, with every node at its identity/bypass defaults.
func NewGraph(sampleRate float64, eqBands int) *Graph {
	return &Graph{
		sampleRate:  sampleRate,
		Preamp:      newPreamp(),
		Tone:        NewTone(sampleRate),
		AutoEQ:      NewParametricEQ(eqBands, sampleRate),
		UserEQ:      NewParametricEQ(eqBands, sampleRate),
		Balance:     NewBalance(),
		Crossfeed:   NewCrossfeed(sampleRate),
		Reverb:      NewReverb(sampleRate),
		Spatializer: NewSpatializer(sampleRate),
		Limiter:     NewLimiter(),
	}
}

// SetSampleRate fans the new rate out to every stateful node.
func (g *Graph) SetSampleRate(sr float64) {
	g.sampleRate = sr
	g.Tone.SetSampleRate(sr)
	g.AutoEQ.SetSampleRate(sr)
	g.UserEQ.SetSampleRate(sr)
	g.Crossfeed.SetSampleRate(sr)
	g.Reverb.SetSampleRate(sr)
	g.Spatializer.SetSampleRate(sr)
}

// SampleRate returns the graph's canonical sample rate.
func (g *Graph) SampleRate() float64 { return g.sampleRate }

// SetPreampDB sets the pre-amp stage's gain in dB, clamped to [-24, 24].
func (g *Graph) SetPreampDB(db float64) { g.Preamp.SetDB(db) }

// PreampDB returns the pre-amp stage's current gain in dB.
func (g *Graph) PreampDB() float64 { return g.Preamp.DB() }

// ProcessStereoFrame runs one stereo sample through the full fixed chain.
func (g *Graph) ProcessStereoFrame(l, r float32) (float32, float32) {
	l, r = g.Preamp.process(l, r)
	l, r = g.Tone.ProcessStereoFrame(l, r)
	l, r = g.AutoEQ.ProcessStereoFrame(l, r)
	l, r = g.UserEQ.ProcessStereoFrame(l, r)
	l, r = g.Balance.ProcessStereoFrame(l, r)
	l, r = g.Crossfeed.ProcessStereoFrame(l, r)
	l, r = g.Reverb.ProcessStereoFrame(l, r)
	l, r = g.Spatializer.ProcessStereoFrame(l, r)
	l, r = g.Limiter.ProcessStereoFrame(l, r)
	return l, r
}

// AutoOrchestra auto-places the four spatializer sources in a 180-degree
// arc in front of the listener (bass -60 deg, drums -20 deg, other +20
// deg, vocals +60 deg) at 75% of the room's half-min-dimension, with
// height clamped to 2 m. A convenience layered on SetPosition; it issues
// no audio-thread state of its own.
func (g *Graph) AutoOrchestra() {
	w, l, h, _ := g.Spatializer.Room.dims()
	halfMin := math.Min(w, l) / 2
	radius := halfMin * 0.75
	height := math.Min(h, 2)

	centerX, centerY := w/2, l/2
	place := func(src *SpatialSource, degrees float64) {
		rad := degrees * math.Pi / 180
		x := centerX + radius*math.Sin(rad)
		y := centerY + radius*math.Cos(rad)
		src.SetPosition(x, y, height)
	}

	place(g.Spatializer.Sources[Bass], -60)
	place(g.Spatializer.Sources[Drums], -20)
	place(g.Spatializer.Sources[Other], 20)
	place(g.Spatializer.Sources[Vocals], 60)
	g.Spatializer.MarkDirty()
}
