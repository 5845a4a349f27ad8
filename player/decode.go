package player

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"powerline/errs"
)

// DecodeErrorKind tags why decode_file failed, mirroring the original
// core's DecodeError kinds.
type DecodeErrorKind string

const (
	FormatProbe    DecodeErrorKind = "FormatProbe"
	NoDefaultTrack DecodeErrorKind = "NoDefaultTrack"
	NoSampleRateMeta DecodeErrorKind = "NoSampleRateMeta"
	NoChannelMeta  DecodeErrorKind = "NoChannelMeta"
	ResetRequired  DecodeErrorKind = "ResetRequired"
	DecodeFailure  DecodeErrorKind = "DecodeFailure"
	IoError        DecodeErrorKind = "IoError"
)

// DecodedTrack is the immutable result of decode_file: a flat interleaved
// float32 PCM buffer plus the format it was decoded at.
type DecodedTrack struct {
	SampleRate   float64
	ChannelCount int
	Samples      []float32 // interleaved, channel-count per frame
}

// FrameCount returns the number of frames (not samples) in the track.
func (t *DecodedTrack) FrameCount() int {
	if t.ChannelCount == 0 {
		return 0
	}
	return len(t.Samples) / t.ChannelCount
}

func decoderFor(ext string, f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(ext) {
	case ".mp3":
		return mp3.Decode(f)
	case ".wav":
		return wav.Decode(f)
	case ".flac":
		return flac.Decode(f)
	case ".ogg", ".oga":
		return vorbis.Decode(f)
	default:
		return nil, beep.Format{}, errs.New(errs.DSP, fmt.Sprintf("unrecognized container extension %q", ext))
	}
}

// DecodeFile decodes an entire audio file into an interleaved float32 PCM
// buffer. On end-of-stream it returns whatever was decoded so far rather
// than an error — a partially-read file still yields a usable track.
func DecodeFile(path string) (*DecodedTrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.FS, "open track file", err)
	}
	defer f.Close()

	streamer, format, err := decoderFor(filepath.Ext(path), f)
	if err != nil {
		return nil, errs.Wrap(errs.DSP, string(FormatProbe), err)
	}
	defer streamer.Close()

	if format.SampleRate <= 0 {
		return nil, errs.New(errs.DSP, string(NoSampleRateMeta))
	}
	if format.NumChannels <= 0 {
		return nil, errs.New(errs.DSP, string(NoChannelMeta))
	}

	const chunk = 4096
	buf := make([][2]float64, chunk)
	samples := make([]float32, 0, streamer.Len()*format.NumChannels)

	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			samples = append(samples, float32(buf[i][0]))
			if format.NumChannels > 1 {
				samples = append(samples, float32(buf[i][1]))
			}
		}
		if !ok {
			break
		}
	}
	if streamer.Err() != nil {
		if len(samples) == 0 {
			return nil, errs.Wrap(errs.DSP, string(DecodeFailure), streamer.Err())
		}
	}

	return &DecodedTrack{
		SampleRate:   float64(format.SampleRate),
		ChannelCount: format.NumChannels,
		Samples:      samples,
	}, nil
}

// TrackMetadata is the subset of tags read_track_metadata extracts.
type TrackMetadata struct {
	Artist          string
	Title           string
	CoverArt        []byte
	DurationSeconds float64
}

// ReadTrackMetadata reads artist/title/cover-art tags from a file. A
// missing title falls back to the file's stem, per spec. Duration is left
// at zero here: it is only known precisely once the track is decoded, so
// callers that need it should decode first and fill it in.
func ReadTrackMetadata(path string) (*TrackMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.FS, "open track file for tags", err)
	}
	defer f.Close()

	m := &TrackMetadata{}
	metadata, err := tag.ReadFrom(f)
	if err != nil {
		m.Title = stemOf(path)
		return m, nil
	}

	m.Artist = metadata.Artist()
	m.Title = metadata.Title()
	if m.Title == "" {
		m.Title = stemOf(path)
	}
	if pic := metadata.Picture(); pic != nil {
		m.CoverArt = pic.Data
	}
	return m, nil
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ResampleLinear resamples interleaved PCM from in_rate to out_rate using
// linear interpolation. This is a documented low-fidelity fallback — it
// bypasses entirely when the rates already match.
func ResampleLinear(samples []float32, inRate, outRate float64, channels int) []float32 {
	if inRate == outRate || channels <= 0 {
		return samples
	}
	inFrames := len(samples) / channels
	if inFrames == 0 {
		return nil
	}
	ratio := outRate / inRate
	outFrames := int(float64(inFrames)*ratio + 0.5)
	out := make([]float32, outFrames*channels)

	for outIdx := 0; outIdx < outFrames; outIdx++ {
		srcPos := float64(outIdx) / ratio
		srcBase := int(srcPos)
		srcNext := srcBase + 1
		if srcNext >= inFrames {
			srcNext = inFrames - 1
		}
		if srcBase >= inFrames {
			srcBase = inFrames - 1
		}
		frac := float32(srcPos - float64(srcBase))
		for ch := 0; ch < channels; ch++ {
			a := samples[srcBase*channels+ch]
			b := samples[srcNext*channels+ch]
			out[outIdx*channels+ch] = a + (b-a)*frac
		}
	}
	return out
}
