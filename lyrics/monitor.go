package lyrics

import (
	"context"
	"sort"
	"sync/atomic"
	"time"
)

// ActiveNone is the sentinel "no active line" index.
const ActiveNone = -1

// Event is emitted whenever the active line changes.
type Event struct {
	Index       int // ActiveNone if no line is active
	TimestampMs uint32
	Text        string
}

// Clock is the playback clock the monitor polls. Implemented by the
// playback engine.
type Clock interface {
	CurrentFrame() uint32
	OutputRateHz() float64
}

const pollInterval = 40 * time.Millisecond

// Monitor polls a Clock every 40ms and emits an Event to sink whenever the
// active lyric line changes.
type Monitor struct {
	lines       []Line
	activeIndex atomic.Int64
}

// NewMonitor builds a Monitor over an already timestamp-sorted line list.
func NewMonitor(lines []Line) *Monitor {
	m := &Monitor{lines: lines}
	m.activeIndex.Store(ActiveNone)
	return m
}

// ResetActive clears the active line back to its sentinel, e.g. after a
// seek. The next tick re-derives it from the clock and may re-emit.
func (m *Monitor) ResetActive() {
	m.activeIndex.Store(ActiveNone)
}

// activeAt binary-searches lines by timestamp for now_ms. An exact hit at
// index i activates i; otherwise the insertion point determines whether
// any line is active yet.
func (m *Monitor) activeAt(nowMs uint32) int {
	n := len(m.lines)
	if n == 0 {
		return ActiveNone
	}
	idx := sort.Search(n, func(i int) bool { return m.lines[i].TimestampMs > nowMs })
	if idx == 0 {
		return ActiveNone
	}
	return idx - 1
}

// Run polls clock every 40ms until ctx is done, sending an Event to sink
// each time the active line changes. Intended to run in its own
// goroutine, one per load_track call.
func (m *Monitor) Run(ctx context.Context, clock Clock, sink func(Event)) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(clock, sink)
		}
	}
}

func (m *Monitor) tick(clock Clock, sink func(Event)) {
	rate := clock.OutputRateHz()
	if rate <= 0 {
		return
	}
	frame := clock.CurrentFrame()
	nowMs := uint32(uint64(frame) * 1000 / uint64(rate))

	newIdx := m.activeAt(nowMs)
	if int64(newIdx) == m.activeIndex.Swap(int64(newIdx)) {
		return
	}

	if newIdx == ActiveNone {
		sink(Event{Index: ActiveNone})
		return
	}
	line := m.lines[newIdx]
	sink(Event{Index: newIdx, TimestampMs: line.TimestampMs, Text: line.Text})
}
