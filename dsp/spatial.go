package dsp

import (
	"math"
	"sync/atomic"
)

// SourceLabel names one of the four fixed virtual sources a Spatializer
// positions in the room.
type SourceLabel int

const (
	Vocals SourceLabel = iota
	Drums
	Bass
	Other
)

const (
	headRadiusM   = 0.0875
	speedOfSoundM = 343.0
	earHeightM    = 1.7

	directRingMinSamples     = 128
	maxITDSamples            = 127
	reflectionRingMinSeconds = 0.1
)

type reflectionTap struct {
	delaySamples int
	attenuation  float32
	rightEar     bool
}

// sourceState is the audio-thread-owned derived state for one source,
// recomputed from its atomic position whenever the spatializer is dirty.
// Control threads never touch these fields.
type sourceState struct {
	directRing []float32
	directPos  int

	reflectionRing []float32
	reflectionPos  int

	headShadowFarL  *Biquad
	headShadowFarR  *Biquad

	itdL, itdR     int
	gainL, gainR   float32
	farIsLeft      bool
	reflections    []reflectionTap
}

// SpatialSource is a single virtual source: a control-thread-visible
// atomic position plus audio-thread-owned rings, filters, and gains.
type SpatialSource struct {
	label SourceLabel

	xBits, yBits, zBits atomic.Uint32
	active              atomic.Bool

	state sourceState
}

func newSpatialSource(label SourceLabel, sampleRate float64) *SpatialSource {
	s := &SpatialSource{label: label}
	s.zBits.Store(math.Float32bits(float32(earHeightM)))
	ringLen := directRingMinSamples
	reflLen := int(math.Ceil(reflectionRingMinSeconds * sampleRate))
	if reflLen < 1 {
		reflLen = 1
	}
	s.state.directRing = make([]float32, ringLen)
	s.state.reflectionRing = make([]float32, reflLen)
	s.state.headShadowFarL = NewBiquad()
	s.state.headShadowFarR = NewBiquad()
	return s
}

// SetPosition sets the source's room-relative (x, y, z) in meters.
func (s *SpatialSource) SetPosition(x, y, z float64) {
	s.xBits.Store(math.Float32bits(float32(x)))
	s.yBits.Store(math.Float32bits(float32(y)))
	s.zBits.Store(math.Float32bits(float32(z)))
}

// SetActive toggles whether this source participates in the mix.
func (s *SpatialSource) SetActive(active bool) { s.active.Store(active) }

func (s *SpatialSource) position() (x, y, z float64) {
	return float64(math.Float32frombits(s.xBits.Load())),
		float64(math.Float32frombits(s.yBits.Load())),
		float64(math.Float32frombits(s.zBits.Load()))
}

// Room is the virtual enclosure the spatializer renders sources inside.
type Room struct {
	widthBits, lengthBits, heightBits, dampingBits atomic.Uint32
}

func newRoom() *Room {
	r := &Room{}
	r.widthBits.Store(math.Float32bits(10))
	r.lengthBits.Store(math.Float32bits(10))
	r.heightBits.Store(math.Float32bits(3))
	r.dampingBits.Store(math.Float32bits(0.3))
	return r
}

func (r *Room) dims() (w, l, h, damping float64) {
	return float64(math.Float32frombits(r.widthBits.Load())),
		float64(math.Float32frombits(r.lengthBits.Load())),
		float64(math.Float32frombits(r.heightBits.Load())),
		float64(math.Float32frombits(r.dampingBits.Load()))
}

// SetWidth, SetLength, SetHeight, SetDamping set the room's geometry, each
// clamped to spec range.
func (r *Room) SetWidth(v float64)   { r.widthBits.Store(math.Float32bits(float32(clamp(v, 2, 50)))) }
func (r *Room) SetLength(v float64)  { r.lengthBits.Store(math.Float32bits(float32(clamp(v, 2, 50)))) }
func (r *Room) SetHeight(v float64)  { r.heightBits.Store(math.Float32bits(float32(clamp(v, 2, 20)))) }
func (r *Room) SetDamping(v float64) { r.dampingBits.Store(math.Float32bits(float32(clamp(v, 0, 1)))) }

// Spatializer renders four virtual sources (vocals, drums, bass, other)
// into a binaural mix via per-frame ITD/ILD, head-shadow low-passing, and
// six-image-source early reflections. Disabled, it is a zero-cost bypass.
type Spatializer struct {
	enabled    atomic.Bool
	dirty      atomic.Bool
	sampleRate float64

	Room    *Room
	Sources [4]*SpatialSource
}

// NewSpatializer builds a disabled Spatializer with four sources at
// distinct default positions around the listener.
func NewSpatializer(sampleRate float64) *Spatializer {
	sp := &Spatializer{sampleRate: sampleRate, Room: newRoom()}
	for i, label := range []SourceLabel{Vocals, Drums, Bass, Other} {
		sp.Sources[i] = newSpatialSource(label, sampleRate)
		sp.Sources[i].active.Store(true)
	}
	sp.Sources[0].SetPosition(5, 2, earHeightM)  // vocals: front center
	sp.Sources[1].SetPosition(8, 8, earHeightM)  // drums: rear
	sp.Sources[2].SetPosition(2, 8, earHeightM)  // bass: rear-left
	sp.Sources[3].SetPosition(8, 2, earHeightM)  // other: front-right
	sp.dirty.Store(true)
	return sp
}

// SetEnabled toggles the spatializer. Disabled is a zero-cost bypass.
func (sp *Spatializer) SetEnabled(enabled bool) { sp.enabled.Store(enabled) }

// Enabled reports whether the spatializer is active.
func (sp *Spatializer) Enabled() bool { return sp.enabled.Load() }

// MarkDirty forces a full recalculation of every source's derived state at
// the next processed frame. Call after any Room or SpatialSource mutation.
func (sp *Spatializer) MarkDirty() { sp.dirty.Store(true) }

// SetSampleRate updates the canonical rate and marks the graph dirty. Ring
// buffers are never shrunk below their required minimums.
func (sp *Spatializer) SetSampleRate(sr float64) {
	sp.sampleRate = sr
	for _, s := range sp.Sources {
		reflLen := int(math.Ceil(reflectionRingMinSeconds * sr))
		if reflLen < 1 {
			reflLen = 1
		}
		if reflLen > len(s.state.reflectionRing) {
			s.state.reflectionRing = make([]float32, reflLen)
			s.state.reflectionPos = 0
		}
	}
	sp.dirty.Store(true)
}

func floorAt(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}

// recalculate derives every active source's itd/gain/filter/reflection
// state from its current atomic position and the room geometry. Audio
// thread only.
func (sp *Spatializer) recalculate() {
	w, l, roomHeight, damping := sp.Room.dims()
	listenerX, listenerY, listenerZ := w/2, l/2, earHeightM

	for _, src := range sp.Sources {
		if !src.active.Load() {
			continue
		}
		x, y, z := src.position()
		dx, dy, dz := x-listenerX, y-listenerY, z-listenerZ
		distance := floorAt(math.Sqrt(dx*dx+dy*dy+dz*dz), 0.1)

		azimuth := math.Atan2(dx, dy)
		absAz := math.Min(math.Abs(azimuth), math.Pi/2)

		itdSeconds := (headRadiusM / speedOfSoundM) * (math.Sin(absAz) + absAz)
		itdSamples := int(math.Round(itdSeconds * sp.sampleRate))
		if itdSamples > maxITDSamples {
			itdSamples = maxITDSamples
		}
		if itdSamples < 0 {
			itdSamples = 0
		}

		ildDB := 6 * math.Sin(absAz)
		nearGain := 1 / distance
		farGain := nearGain * math.Pow(10, -ildDB/20)

		cutoff := clamp(20000-12000*math.Sin(absAz), 2000, 20000)
		farCoeffs := LowPassCoeffs(sp.sampleRate, cutoff, 0.707)
		nearCoeffs := LowPassCoeffs(sp.sampleRate, 20000, 0.707)

		st := &src.state
		farIsLeft := dx > 0
		st.farIsLeft = farIsLeft
		if farIsLeft {
			st.itdL, st.itdR = itdSamples, 0
			st.gainL, st.gainR = float32(farGain), float32(nearGain)
			st.headShadowFarL.SetCoeffs(farCoeffs)
			st.headShadowFarR.SetCoeffs(nearCoeffs)
		} else {
			st.itdL, st.itdR = 0, itdSamples
			st.gainL, st.gainR = float32(nearGain), float32(farGain)
			st.headShadowFarL.SetCoeffs(nearCoeffs)
			st.headShadowFarR.SetCoeffs(farCoeffs)
		}

		st.reflections = computeReflections(x, y, z, listenerX, listenerY, listenerZ, w, l, roomHeight, damping, sp.sampleRate, len(st.reflectionRing))
	}
}

// computeReflections builds the six image-source reflection taps (one per
// room plane: two walls on each of x, y, z) for a single source.
func computeReflections(sx, sy, sz, lx, ly, lz, width, length, height, damping, sampleRate float64, ringLen int) []reflectionTap {
	type plane struct {
		axis int // 0=x,1=y,2=z
		at   float64
	}
	planes := []plane{
		{0, 0}, {0, width},
		{1, 0}, {1, length},
		{2, 0}, {2, height},
	}

	taps := make([]reflectionTap, 0, len(planes))
	for _, p := range planes {
		ix, iy, iz := sx, sy, sz
		switch p.axis {
		case 0:
			ix = 2*p.at - sx
		case 1:
			iy = 2*p.at - sy
		case 2:
			iz = 2*p.at - sz
		}
		dx, dy, dz := ix-lx, iy-ly, iz-lz
		imageDistance := math.Sqrt(dx*dx + dy*dy + dz*dz)
		if imageDistance <= 0 {
			continue
		}
		delaySamples := int(math.Round(imageDistance / speedOfSoundM * sampleRate))
		if delaySamples <= 0 || delaySamples >= ringLen {
			continue
		}
		atten := (1 / imageDistance) * (1 - damping*0.7)
		if atten < 0 {
			atten = 0
		}
		taps = append(taps, reflectionTap{
			delaySamples: delaySamples,
			attenuation:  float32(atten),
			rightEar:     dx >= 0,
		})
	}
	return taps
}

func ringRead(ring []float32, pos, delay int) float32 {
	n := len(ring)
	idx := pos - delay
	idx %= n
	if idx < 0 {
		idx += n
	}
	return ring[idx]
}

// ProcessStereoFrame renders the active sources into a binaural pair.
// Disabled, it returns (l, r) unchanged with no ring writes.
func (sp *Spatializer) ProcessStereoFrame(l, r float32) (float32, float32) {
	if !sp.enabled.Load() {
		return l, r
	}
	if sp.dirty.Swap(false) {
		sp.recalculate()
	}

	s := (l + r) / 2
	var outL, outR float32

	for _, src := range sp.Sources {
		if !src.active.Load() {
			continue
		}
		st := &src.state

		dn := len(st.directRing)
		st.directRing[st.directPos] = s
		delayedL := ringRead(st.directRing, st.directPos, st.itdL)
		delayedR := ringRead(st.directRing, st.directPos, st.itdR)
		st.directPos = (st.directPos + 1) % dn

		outL += st.headShadowFarL.Process(delayedL) * st.gainL
		outR += st.headShadowFarR.Process(delayedR) * st.gainR

		rn := len(st.reflectionRing)
		st.reflectionRing[st.reflectionPos] = s
		for _, tap := range st.reflections {
			sample := ringRead(st.reflectionRing, st.reflectionPos, tap.delaySamples)
			if tap.rightEar {
				outR += sample * tap.attenuation * st.gainR
			} else {
				outL += sample * tap.attenuation * st.gainL
			}
		}
		st.reflectionPos = (st.reflectionPos + 1) % rn
	}

	return outL, outR
}
