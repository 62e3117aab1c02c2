package video

import (
	"errors"
	"sync/atomic"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("video: bridge closed")

// ErrNilFrame is returned by Publish for a nil frame.
var ErrNilFrame = errors.New("video: nil frame")

// Bridge is the single-slot mailbox between the decoder thread and the
// render thread. Publish atomically replaces the slot; Latest returns
// the current occupant without blocking. Neither side ever waits on the
// other: the decoder gets no backpressure, the renderer never stalls on
// decoder progress.
type Bridge struct {
	slot atomic.Pointer[Frame]

	published atomic.Uint64
	dropped   atomic.Uint64
	bytes     atomic.Uint64
	lastRead  atomic.Uint64
	closed    atomic.Bool
}

// NewBridge returns an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Publish replaces the slot with f, assigning its sequence number.
// Called from the decoder's delivery thread. The superseded frame, if
// never read, is counted as dropped.
func (b *Bridge) Publish(f *Frame) error {
	if f == nil {
		return ErrNilFrame
	}
	if b.closed.Load() {
		return ErrClosed
	}

	f.Seq = b.published.Add(1)
	b.bytes.Add(uint64(len(f.Data)))

	prev := b.slot.Swap(f)
	if prev != nil && prev.Seq > b.lastRead.Load() {
		b.dropped.Add(1)
	}
	return nil
}

// Latest returns the most recently published frame, or false before the
// first publish or after Close. Never blocks. The returned frame remains
// valid for the caller until it is garbage; the bridge will not mutate
// it, only supersede it.
func (b *Bridge) Latest() (*Frame, bool) {
	f := b.slot.Load()
	if f == nil {
		return nil, false
	}
	// Mark read for drop accounting. Monotonic max: a stale store from a
	// racing reader only undercounts drops, which is acceptable for a
	// diagnostic counter.
	if seq := f.Seq; seq > b.lastRead.Load() {
		b.lastRead.Store(seq)
	}
	return f, true
}

// Close empties the slot and rejects further publishes. Safe to call
// more than once. Latest returns false after Close.
func (b *Bridge) Close() {
	b.closed.Store(true)
	b.slot.Store(nil)
}

// Closed reports whether Close has been called. Consumers that outlive
// the publisher poll this to learn the stream is over.
func (b *Bridge) Closed() bool {
	return b.closed.Load()
}

// Stats is a point-in-time snapshot of bridge counters.
type Stats struct {
	// Published is the number of frames accepted by Publish.
	Published uint64

	// Dropped is the number of published frames superseded before any
	// read. decoder-faster-than-renderer shows up here.
	Dropped uint64

	// Bytes is the cumulative payload size of published frames.
	Bytes uint64
}

// Stats returns a snapshot of the bridge counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Published: b.published.Load(),
		Dropped:   b.dropped.Load(),
		Bytes:     b.bytes.Load(),
	}
}
