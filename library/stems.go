package library

import "fmt"

// StemKind is one of the four fallback stem categories.
type StemKind string

const (
	Vocals StemKind = "vocals"
	Drums  StemKind = "drums"
	Bass   StemKind = "bass"
	Other  StemKind = "other"
)

// StemKinds lists all four, in the order StemCache checks and loads them.
var StemKinds = []StemKind{Vocals, Drums, Bass, Other}

// Stems holds one interleaved-stereo float32 buffer per stem.
type Stems struct {
	Vocals, Drums, Bass, Other []float32
}

// ProgressFunc receives incremental {percent, stage} updates during
// separation, matching the `stems-progress` event shape of spec.md §6.
type ProgressFunc func(percent float32, stage string)

// Separator decodes a track into four stems. The real implementation may
// be a neural model; spec.md explicitly marks that out of scope, so the
// only implementation shipped here is FallbackSeparator, a deterministic
// mid/side decomposition. Grounded on
// original_source/src-tauri/src/library/stems.rs's StemSeparator, which
// models the same two-implementation shape (ONNX engine with a
// center-cancellation fallback on any error).
type Separator interface {
	Separate(samples []float32, channels int, progress ProgressFunc) (Stems, error)
}

// FallbackSeparator implements the deterministic center-cancellation
// fallback: mid = (L+R)/2 is low-passed into "bass", vocals are the
// high-passed remainder of mid, and the side signal (L-R)/2 splits
// evenly between "drums" and "other". A final residual-absorption pass
// guarantees the four stems sum back to the original losslessly.
type FallbackSeparator struct{}

// bassAlpha is the one-pole low-pass coefficient for bass extraction,
// ported from stems.rs's center_cancel_fallback (~140 Hz at 44.1 kHz).
const bassAlpha = 0.02

// Separate runs the fallback separation. progress, if non-nil, is called
// once at the start and once at completion (the fallback is fast enough
// that finer-grained progress reporting is not meaningful).
func (FallbackSeparator) Separate(samples []float32, channels int, progress ProgressFunc) (Stems, error) {
	if channels < 2 {
		return Stems{}, fmt.Errorf("stem separation requires stereo input, got %d channel(s)", channels)
	}
	if progress != nil {
		progress(0, "separating")
	}

	frameCount := len(samples) / channels
	vocals := make([]float32, 0, frameCount*2)
	drums := make([]float32, 0, frameCount*2)
	bass := make([]float32, 0, frameCount*2)
	other := make([]float32, 0, frameCount*2)

	var bassStateL, bassStateR float32
	for i := 0; i < frameCount; i++ {
		l := samples[i*channels]
		r := samples[i*channels+1]

		mid := (l + r) * 0.5
		side := (l - r) * 0.5

		bassStateL += bassAlpha * (mid - bassStateL)
		bassStateR += bassAlpha * (mid - bassStateR)
		bassL, bassR := bassStateL, bassStateR

		vocalL := mid - bassL
		vocalR := mid - bassR

		drumL := side * 0.5
		drumR := -side * 0.5
		otherL := side * 0.5
		otherR := -side * 0.5

		vocals = append(vocals, vocalL, vocalR)
		drums = append(drums, drumL, drumR)
		bass = append(bass, bassL, bassR)
		other = append(other, otherL, otherR)
	}

	// Residual absorption: float accumulation across four derived stems
	// drifts from the original L/R by rounding error alone, so fold
	// whatever is left into "other" and guarantee exact reconstruction.
	// Indexed per output frame (stereo), not per input sample, since
	// channels may carry more than two source channels while every stem
	// buffer is always interleaved stereo.
	for i := 0; i < frameCount; i++ {
		l := samples[i*channels]
		r := samples[i*channels+1]
		sumL := vocals[i*2] + drums[i*2] + bass[i*2] + other[i*2]
		sumR := vocals[i*2+1] + drums[i*2+1] + bass[i*2+1] + other[i*2+1]
		other[i*2] += l - sumL
		other[i*2+1] += r - sumR
	}

	if progress != nil {
		progress(1, "complete")
	}
	return Stems{Vocals: vocals, Drums: drums, Bass: bass, Other: other}, nil
}

// StemCache is a content-addressed cache of already-separated stems,
// keyed by track path. Each stem is stored as its own raw float32 blob;
// the player package owns turning that back into playable PCM.
type StemCache struct {
	dir string
}

// NewStemCache builds a stem cache rooted at dir.
func NewStemCache(dir string) (*StemCache, error) {
	c, err := NewContentCache(dir, "")
	if err != nil {
		return nil, err
	}
	return &StemCache{dir: c.dir}, nil
}

func (c *StemCache) stemCache(kind StemKind) (*ContentCache, error) {
	return NewContentCache(c.dir, "."+string(kind)+".f32")
}

// Has reports whether all four stems are already cached for a track.
func (c *StemCache) Has(trackPath string) bool {
	key := KeyFor(trackPath)
	for _, kind := range StemKinds {
		cache, err := c.stemCache(kind)
		if err != nil || !cache.Has(key) {
			return false
		}
	}
	return true
}

// Store persists all four stems of a Stems result for trackPath.
func (c *StemCache) Store(trackPath string, stems Stems) error {
	key := KeyFor(trackPath)
	for _, pair := range []struct {
		kind StemKind
		data []float32
	}{
		{Vocals, stems.Vocals}, {Drums, stems.Drums}, {Bass, stems.Bass}, {Other, stems.Other},
	} {
		cache, err := c.stemCache(pair.kind)
		if err != nil {
			return err
		}
		if _, err := cache.Write(key, float32SliceToBytes(pair.data)); err != nil {
			return fmt.Errorf("store %s stem: %w", pair.kind, err)
		}
	}
	return nil
}

// Load reads back a previously cached Stems for trackPath, or ok=false
// if any of the four stems is missing.
func (c *StemCache) Load(trackPath string) (stems Stems, ok bool) {
	key := KeyFor(trackPath)
	out := map[StemKind][]float32{}
	for _, kind := range StemKinds {
		cache, err := c.stemCache(kind)
		if err != nil {
			return Stems{}, false
		}
		data, found := cache.Read(key)
		if !found {
			return Stems{}, false
		}
		out[kind] = bytesToFloat32Slice(data)
	}
	return Stems{Vocals: out[Vocals], Drums: out[Drums], Bass: out[Bass], Other: out[Other]}, true
}
