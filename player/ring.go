package player

import "sync/atomic"

// RingCapacityFrames is the SPSC ring buffer's capacity, expressed in
// frames: actual float storage is this many frames times the output
// channel count.
const RingCapacityFrames = 4096

// Ring is a single-producer/single-consumer lock-free queue of float32
// samples. One producer (the decode/feed thread) calls TryPush and, on a
// seek, RequestClear; one consumer (the audio callback) calls TryPop,
// which also carries out any pending clear. No synchronization beyond
// plain atomic loads/stores is needed because each cursor (head, tail)
// still has exactly one writer.
type Ring struct {
	_pad0        [64]byte
	head         uint64
	_pad1        [64]byte
	tail         uint64
	_pad2        [64]byte
	clearPending atomic.Bool
	mask         uint64
	data         []float32
}

// NewRing builds a Ring whose capacity is the next power of two at or
// above capacity.
func NewRing(capacity int) *Ring {
	c := 1
	for c < capacity {
		c <<= 1
	}
	return &Ring{mask: uint64(c - 1), data: make([]float32, c)}
}

// TryPush attempts to enqueue one sample; returns false if the ring is
// full. Producer-only.
func (r *Ring) TryPush(v float32) bool {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	if head-tail > r.mask {
		return false
	}
	r.data[head&r.mask] = v
	atomic.StoreUint64(&r.head, head+1)
	return true
}

// TryPop attempts to dequeue one sample; returns (0, false) if the ring is
// empty. Consumer-only: tail is written only here (and by the deferred
// clear below), so this is the sole writer RequestClear needs to avoid
// racing.
func (r *Ring) TryPop() (float32, bool) {
	if r.clearPending.CompareAndSwap(true, false) {
		atomic.StoreUint64(&r.tail, atomic.LoadUint64(&r.head))
		return 0, false
	}
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head)
	if tail >= head {
		return 0, false
	}
	v := r.data[tail&r.mask]
	atomic.StoreUint64(&r.tail, tail+1)
	return v, true
}

// Len returns the approximate number of queued samples.
func (r *Ring) Len() int {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	if head < tail {
		return 0
	}
	return int(head - tail)
}

// Cap returns the ring's storage capacity in samples.
func (r *Ring) Cap() int { return int(r.mask + 1) }

// Clear discards all queued samples by snapping tail to head, synchronously.
// Consumer-only: safe only when called from the same goroutine that also
// calls TryPop (e.g. tests), since it writes tail directly.
func (r *Ring) Clear() {
	head := atomic.LoadUint64(&r.head)
	atomic.StoreUint64(&r.tail, head)
}

// RequestClear is the producer-safe counterpart to Clear: the producer
// thread calls this during a seek, but the actual tail snap happens inside
// the consumer's next TryPop, so tail is still written by one goroutine
// only. Any sample the producer pushes before the consumer observes the
// pending clear is discarded along with everything already queued.
func (r *Ring) RequestClear() {
	r.clearPending.Store(true)
}
