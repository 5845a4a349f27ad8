// Package player implements the playback engine: device stream lifecycle,
// the producer/callback SPSC hand-off, gapless track hand-off, seek and
// transport control, and the DSP graph that processes every frame before
// it reaches the device.
package player

import (
	"context"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"powerline/dsp"
	"powerline/lyrics"
	"powerline/visualizer"
)

const (
	seekSentinel        = ^uint32(0)
	preloadProgressMark = 0.95
	producerChunkFrames = 256
	backpressureSleep   = 2 * time.Millisecond
	eofWaitSleep        = 10 * time.Millisecond
	visualizerTapSize   = 4096
)

// Event is a union of the two event kinds the engine emits.
type Event struct {
	LyricsLineChanged *lyrics.Event
	StemsProgress     *StemsProgressEvent
}

// StemsProgressEvent reports incremental progress on a stem-separation job.
type StemsProgressEvent struct {
	TrackID string
	Percent float64
	Stage   string
}

// AudioStats is the UI-facing snapshot of device/stream state.
type AudioStats struct {
	DeviceName            string
	StreamLatencyMs        float64
	OutputSampleRateHz     float64
	FileSampleRateHz       float64
	RingBufferCapacityBytes int
	RingBufferUsedBytes     int
}

// Engine is the playback engine: device selection, stream lifecycle,
// producer thread, callback, seek/pause/volume/preamp, gapless hand-off,
// visualizer tap, and the playback clock.
type Engine struct {
	Graph *dsp.Graph

	isPlaying  atomic.Bool
	shouldStop atomic.Bool

	volumeBits     atomic.Uint32
	outputRateBits atomic.Uint32
	seekFrameBits  atomic.Uint32
	currentFrame   atomic.Uint32
	durationBits   atomic.Uint32

	outputChannels int
	fileSampleRate float64
	deviceName     string

	// gapless pipeline
	gaplessMu           sync.Mutex
	nextTrackPath       string
	hasNextTrack        bool
	preloadedNextTrack  *DecodedTrack
	lookaheadStarted    atomic.Bool
	lookaheadCompleted  atomic.Bool

	// producer-owned
	mu           sync.Mutex
	ring         *Ring
	currentTrack *DecodedTrack
	readFrame    int
	producerCtx    context.Context
	producerCancel context.CancelFunc
	producerWG     sync.WaitGroup

	lyricsMonitor *lyrics.Monitor
	lyricsCancel  context.CancelFunc

	tap *visualizer.Tap

	events chan Event
	logger *log.Logger
}

// NewEngine builds an Engine, initializes the speaker at sampleRate, and
// returns it ready for LoadTrack.
func NewEngine(sampleRate float64) *Engine {
	speaker.Init(beep.SampleRate(int(sampleRate)), beep.SampleRate(int(sampleRate)).N(time.Second/10))
	e := &Engine{
		Graph:          dsp.NewGraph(sampleRate, 10),
		outputChannels: 2,
		deviceName:     "default",
		tap:            visualizer.NewTap(visualizerTapSize),
		events:         make(chan Event, 64),
		logger:         log.NewWithOptions(os.Stderr, log.Options{Prefix: "player"}),
	}
	e.outputRateBits.Store(math.Float32bits(float32(sampleRate)))
	e.volumeBits.Store(math.Float32bits(1))
	e.seekFrameBits.Store(seekSentinel)
	return e
}

// Events returns the channel engine events (lyric line changes, stem
// progress) are delivered on.
func (e *Engine) Events() <-chan Event { return e.events }

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.logger.Warn("event channel full, dropping event")
	}
}

// --- playback clock (implements lyrics.Clock) ---

// CurrentFrame returns the callback's last-advanced frame position.
func (e *Engine) CurrentFrame() uint32 { return e.currentFrame.Load() }

// OutputRateHz returns the canonical output sample rate.
func (e *Engine) OutputRateHz() float64 {
	return float64(math.Float32frombits(e.outputRateBits.Load()))
}

// TrackDurationSeconds returns the current track's duration.
func (e *Engine) TrackDurationSeconds() float64 {
	return float64(math.Float32frombits(e.durationBits.Load()))
}

// IsPlaying reports the transport state.
func (e *Engine) IsPlaying() bool { return e.isPlaying.Load() }

// --- transport ---

// Play resumes playback.
func (e *Engine) Play() { e.isPlaying.Store(true) }

// Pause suspends playback; the callback fills silence while paused.
func (e *Engine) Pause() { e.isPlaying.Store(false) }

// SetVolume sets the linear output volume, clamped to [0, 1].
func (e *Engine) SetVolume(v float64) {
	e.volumeBits.Store(math.Float32bits(float32(clampUnit(v))))
}

// Volume returns the current linear output volume.
func (e *Engine) Volume() float64 {
	return float64(math.Float32frombits(e.volumeBits.Load()))
}

// SetPreampDb sets the DSP graph's pre-amp gain in dB, clamped to [-24, 24].
func (e *Engine) SetPreampDb(db float64) { e.Graph.SetPreampDB(db) }

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Seek clamps seconds to >= 0, converts to a frame index at the output
// rate, and writes seek_frame for the producer to observe. Also resets
// the active lyric line to its sentinel.
func (e *Engine) Seek(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	frame := uint32(seconds * e.OutputRateHz())
	e.seekFrameBits.Store(frame)
	if e.lyricsMonitor != nil {
		e.lyricsMonitor.ResetActive()
	}
}

// SetNextTrack arms or disarms the gapless hand-off. Resets lookahead
// flags and drops any cached preload.
func (e *Engine) SetNextTrack(path string) {
	e.gaplessMu.Lock()
	defer e.gaplessMu.Unlock()
	if path == "" {
		e.hasNextTrack = false
		e.nextTrackPath = ""
	} else {
		e.hasNextTrack = true
		e.nextTrackPath = path
	}
	e.preloadedNextTrack = nil
	e.lookaheadStarted.Store(false)
	e.lookaheadCompleted.Store(false)
}

// Stats returns a UI-facing snapshot of stream/device state.
func (e *Engine) Stats() AudioStats {
	e.mu.Lock()
	r := e.ring
	e.mu.Unlock()
	used, capacity := 0, 0
	if r != nil {
		used, capacity = r.Len(), r.Cap()
	}
	return AudioStats{
		DeviceName:              e.deviceName,
		StreamLatencyMs:         100,
		OutputSampleRateHz:      e.OutputRateHz(),
		FileSampleRateHz:        e.fileSampleRate,
		RingBufferCapacityBytes: capacity * 4,
		RingBufferUsedBytes:     used * 4,
	}
}

// GetVibeData returns a windowed FFT magnitude spectrum of the most
// recent output, plus the instantaneous peak amplitude since the last call.
func (e *Engine) GetVibeData() ([]float64, float64) {
	samples, peak := e.tap.Snapshot()
	return visualizer.ComputeSpectrum(samples), peak
}

// LoadTrack stops any current playback, decodes path, selects a stream
// configuration, adapts the PCM to the output format, and spawns a fresh
// producer thread. The previous lyrics monitor is cancelled; a new one is
// started only by StartLyricsMonitor. STOP-AND-REPLACE: prior state is
// left untouched on failure.
func (e *Engine) LoadTrack(path string) error {
	decoded, err := DecodeFile(path)
	if err != nil {
		return err
	}

	selected, err := SelectStreamConfig(DefaultDeviceConfigs, decoded.ChannelCount, decoded.SampleRate)
	if err != nil {
		return err
	}

	e.stopProducer()
	speaker.Clear()

	adapted := adaptTrack(decoded, selected.RateHz, e.outputChannels)

	e.mu.Lock()
	e.fileSampleRate = decoded.SampleRate
	e.outputRateBits.Store(math.Float32bits(float32(selected.RateHz)))
	e.currentTrack = adapted
	e.readFrame = 0
	e.ring = NewRing(RingCapacityFrames * e.outputChannels)
	e.mu.Unlock()

	e.Graph.SetSampleRate(selected.RateHz)
	durationSeconds := float64(adapted.FrameCount()) / selected.RateHz
	e.durationBits.Store(math.Float32bits(float32(durationSeconds)))
	e.currentFrame.Store(0)
	e.shouldStop.Store(false)
	e.isPlaying.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	e.producerCtx = ctx
	e.producerCancel = cancel
	e.producerWG.Add(1)
	go e.producerLoop(ctx)

	speaker.Play(&engineStreamer{engine: e})

	return nil
}

// stopProducer signals should_stop, joins the producer, and cancels the
// lyrics monitor. A blocking control-plane op, as spec'd.
func (e *Engine) stopProducer() {
	e.shouldStop.Store(true)
	if e.producerCancel != nil {
		e.producerCancel()
	}
	e.producerWG.Wait()
	if e.lyricsCancel != nil {
		e.lyricsCancel()
		e.lyricsCancel = nil
	}
}

// Close stops playback and releases producer resources.
func (e *Engine) Close() {
	e.stopProducer()
	speaker.Clear()
}

// StartLyricsMonitor parses lrcText and spawns a poller that emits
// lyrics-line-changed events on the engine's event channel.
func (e *Engine) StartLyricsMonitor(lrcText string) {
	if e.lyricsCancel != nil {
		e.lyricsCancel()
	}
	lines := lyrics.ParseLRC(lrcText)
	e.lyricsMonitor = lyrics.NewMonitor(lines)
	ctx, cancel := context.WithCancel(context.Background())
	e.lyricsCancel = cancel
	go e.lyricsMonitor.Run(ctx, e, func(ev lyrics.Event) {
		e.emit(Event{LyricsLineChanged: &ev})
	})
}

// adaptTrack resamples (linear fallback) and channel-adapts a decoded
// track to the target rate/channel count. Channel adaptation is a
// copy/fold, not a downmix: output channel i takes input channel i mod
// in_channels.
func adaptTrack(t *DecodedTrack, outRate float64, outChannels int) *DecodedTrack {
	samples := t.Samples
	inChannels := t.ChannelCount
	if t.SampleRate != outRate {
		samples = ResampleLinear(samples, t.SampleRate, outRate, inChannels)
	}
	if inChannels == outChannels {
		return &DecodedTrack{SampleRate: outRate, ChannelCount: outChannels, Samples: samples}
	}

	inFrames := len(samples) / inChannels
	out := make([]float32, inFrames*outChannels)
	for f := 0; f < inFrames; f++ {
		for c := 0; c < outChannels; c++ {
			out[f*outChannels+c] = samples[f*inChannels+(c%inChannels)]
		}
	}
	return &DecodedTrack{SampleRate: outRate, ChannelCount: outChannels, Samples: out}
}

// producerLoop owns the decoded PCM and the read cursor. See spec's
// "Producer thread loop" for the exact five-step iteration.
func (e *Engine) producerLoop(ctx context.Context) {
	defer e.producerWG.Done()
	for {
		if e.shouldStop.Load() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		e.maybeStartLookaheadDecode()

		if seekTo := e.seekFrameBits.Swap(seekSentinel); seekTo != seekSentinel {
			e.mu.Lock()
			total := e.currentTrack.FrameCount()
			if int(seekTo) < total {
				e.readFrame = int(seekTo)
			} else {
				e.readFrame = total
			}
			e.ring.RequestClear()
			e.mu.Unlock()
			e.currentFrame.Store(uint32(e.readFrame))
		}

		if e.producerAtEOF() {
			if e.swapInPreload() {
				continue
			}
			time.Sleep(eofWaitSleep)
			continue
		}

		if e.ring.Cap()-e.ring.Len() < e.outputChannels {
			time.Sleep(backpressureSleep)
			continue
		}

		e.pushChunk()
	}
}

func (e *Engine) producerAtEOF() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readFrame >= e.currentTrack.FrameCount()
}

func (e *Engine) pushChunk() {
	e.mu.Lock()
	defer e.mu.Unlock()
	track := e.currentTrack
	channels := track.ChannelCount
	total := track.FrameCount()

	vacantFrames := (e.ring.Cap() - e.ring.Len()) / channels
	framesToCopy := producerChunkFrames
	if framesToCopy > vacantFrames {
		framesToCopy = vacantFrames
	}
	if framesToCopy > total-e.readFrame {
		framesToCopy = total - e.readFrame
	}
	for i := 0; i < framesToCopy; i++ {
		base := (e.readFrame + i) * channels
		for c := 0; c < channels; c++ {
			e.ring.TryPush(track.Samples[base+c])
		}
	}
	e.readFrame += framesToCopy
}

// maybeStartLookaheadDecode performs step 2 of the producer loop: if the
// callback has armed the lookahead and no preload exists yet, decode the
// next track (blocking) off the audio thread.
func (e *Engine) maybeStartLookaheadDecode() {
	if !e.lookaheadStarted.Load() || e.lookaheadCompleted.Load() {
		return
	}
	e.gaplessMu.Lock()
	if !e.hasNextTrack || e.preloadedNextTrack != nil {
		e.gaplessMu.Unlock()
		return
	}
	path := e.nextTrackPath
	e.gaplessMu.Unlock()

	decoded, err := DecodeFile(path)
	if err != nil {
		e.logger.Error("gapless preload failed", "path", path, "err", err)
		e.lookaheadCompleted.Store(true)
		return
	}

	e.gaplessMu.Lock()
	e.preloadedNextTrack = decoded
	e.gaplessMu.Unlock()
	e.lookaheadCompleted.Store(true)
}

// swapInPreload hands off to the preloaded next track if one is ready.
func (e *Engine) swapInPreload() bool {
	e.gaplessMu.Lock()
	preload := e.preloadedNextTrack
	if preload == nil {
		e.gaplessMu.Unlock()
		return false
	}
	e.preloadedNextTrack = nil
	e.hasNextTrack = false
	e.nextTrackPath = ""
	e.gaplessMu.Unlock()

	outRate := e.OutputRateHz()
	adapted := adaptTrack(preload, outRate, e.outputChannels)

	e.mu.Lock()
	e.currentTrack = adapted
	e.readFrame = 0
	e.mu.Unlock()

	e.currentFrame.Store(0)
	durationSeconds := float64(adapted.FrameCount()) / outRate
	e.durationBits.Store(math.Float32bits(float32(durationSeconds)))

	e.lookaheadStarted.Store(false)
	e.lookaheadCompleted.Store(false)
	return true
}

// maybeArmLookahead implements the arming rule from the callback's
// perspective: progress >= 95%, a next track is set, not already
// completed/started, and duration > 0. Single-fire via check-and-set.
// If gaplessMu is held elsewhere the check is skipped for this frame.
func (e *Engine) maybeArmLookahead() {
	duration := e.TrackDurationSeconds()
	if duration <= 0 {
		return
	}
	if !e.gaplessMu.TryLock() {
		return
	}
	hasNext := e.hasNextTrack
	e.gaplessMu.Unlock()
	if !hasNext || e.lookaheadCompleted.Load() {
		return
	}

	progress := float64(e.currentFrame.Load()) / (duration * e.OutputRateHz())
	if progress < preloadProgressMark {
		return
	}
	e.lookaheadStarted.CompareAndSwap(false, true)
}

// engineStreamer adapts the Engine's ring+graph pipeline to beep's
// Streamer interface, which is the audio callback in this architecture.
type engineStreamer struct {
	engine *Engine
}

func (s *engineStreamer) Err() error { return nil }

// Stream is the audio callback: wait-free, no allocation, no blocking.
func (s *engineStreamer) Stream(samples [][2]float64) (int, bool) {
	e := s.engine
	channels := e.outputChannels
	playing := e.isPlaying.Load()

	for i := range samples {
		var l, r float32
		if playing {
			l, r = e.popFrame(channels)
			l, r = e.Graph.ProcessStereoFrame(l, r)
			vol := float32(e.Volume())
			l *= vol
			r *= vol
		}
		samples[i][0] = float64(l)
		samples[i][1] = float64(r)

		e.tap.TryAppend(float64((l + r) / 2))
		e.currentFrame.Add(1)
		e.maybeArmLookahead()
	}
	return len(samples), true
}

// popFrame pops one output frame's worth of raw samples from the ring and
// maps them to a stereo pair, per the channel-count rules in spec.md
// §4.K: mono-duplicate for one channel, direct for stereo, sum-fold for
// more.
func (e *Engine) popFrame(channels int) (l, r float32) {
	switch channels {
	case 1:
		v, _ := e.ring.TryPop()
		return v, v
	case 2:
		lv, _ := e.ring.TryPop()
		rv, _ := e.ring.TryPop()
		return lv, rv
	default:
		var sumL, sumR float32
		for c := 0; c < channels; c++ {
			v, _ := e.ring.TryPop()
			if c%2 == 0 {
				sumL += v
			} else {
				sumR += v
			}
		}
		return sumL, sumR
	}
}
