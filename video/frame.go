// Package video decouples an external decoder from the render thread.
//
// The decoder delivers frames at its own cadence through Bridge.Publish;
// the renderer picks up whatever is freshest through Bridge.Latest. There
// is exactly one slot: older undisplayed frames are dropped, never
// queued, so memory and staleness stay bounded no matter how far the two
// cadences drift apart.
package video

import (
	"time"

	"github.com/google/uuid"
)

// BytesPerPixel is the size of one RGBA pixel.
const BytesPerPixel = 4

// Frame is one decoded video frame in RGBA order. Data holds
// Stride*Height bytes; Stride is at least Width*BytesPerPixel.
//
// The bridge owns the authoritative copy of a published frame until it
// is superseded. The renderer borrows Data only for the duration of a
// texture upload and must not hold it across frames.
type Frame struct {
	Width  int
	Height int
	Stride int
	Data   []byte

	// PTS is the presentation timestamp from the container, relative to
	// stream start.
	PTS time.Duration

	// Seq is assigned by the bridge on publish, starting at 1 and
	// strictly increasing. Zero means the frame was never published.
	Seq uint64

	// TraceID ties log lines from the decoder thread and the render
	// thread to the same frame.
	TraceID string
}

// NewFrame builds a tightly-packed RGBA frame around data and assigns a
// fresh trace ID. data must hold width*height*BytesPerPixel bytes; the
// frame takes ownership of it.
func NewFrame(width, height int, data []byte, pts time.Duration) *Frame {
	return &Frame{
		Width:   width,
		Height:  height,
		Stride:  width * BytesPerPixel,
		Data:    data,
		PTS:     pts,
		TraceID: uuid.New().String(),
	}
}
