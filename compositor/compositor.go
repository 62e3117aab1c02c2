// Package compositor renders decoded video frames into swapchain
// images. It implements the xr.Renderer interface used by the frame
// loop: one RenderView call per eye per frame, between the acquire and
// release of that eye's swapchain image.
//
// Each view is cleared to opaque black and the frame is letterboxed
// into it, preserving the source aspect ratio. Stereoscopic sources
// packed side-by-side or top-bottom are split per eye (see Layout);
// the default treats the frame as mono.
//
// Two render paths exist and are chosen per target. Targets exposing
// CPU pixels are composed with golang.org/x/image/draw. Targets
// exposing only a GPU texture view go through a fullscreen blit on the
// wgpu HAL device supplied via WithDevice; without a device such
// targets fail with ErrNoDevice.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/video"
)

// Sentinel errors returned by RenderView.
var (
	// ErrNoDevice is returned for texture-backed targets when no GPU
	// device was configured with WithDevice.
	ErrNoDevice = errors.New("compositor: no GPU device configured")

	// ErrUnsupportedTarget is returned for targets that expose neither
	// CPU pixels nor a usable texture view.
	ErrUnsupportedTarget = errors.New("compositor: target exposes neither pixels nor texture view")
)

// Compositor renders video frames into render targets. Create one with
// New and share it across eyes; RenderView must be called from a single
// goroutine (the frame loop's render thread).
type Compositor struct {
	layout Layout

	mu  sync.Mutex
	gpu *gpuState
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithLayout sets the stereo packing of the source material.
// The default is LayoutMono.
func WithLayout(l Layout) Option {
	return func(c *Compositor) { c.layout = l }
}

// WithDevice supplies the GPU device used for texture-backed targets.
// The provider must expose HalDevice() any and HalQueue() any returning
// the wgpu HAL device and queue; graphics bindings from device-backed
// surface providers do. The device is shared, not owned: Close releases
// the compositor's resources but never destroys the device itself.
//
// Providers that do not expose HAL types are ignored; texture-backed
// targets then fail with ErrNoDevice while CPU targets keep working.
func WithDevice(provider any) Option {
	return func(c *Compositor) { c.gpu = newGPUState(provider) }
}

// New creates a compositor. With no options it composes mono video on
// CPU-backed targets only.
func New(opts ...Option) *Compositor {
	c := &Compositor{layout: LayoutMono}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Layout returns the configured stereo packing.
func (c *Compositor) Layout() Layout { return c.layout }

// RenderView implements xr.Renderer. It clears the target and draws the
// eye's portion of the frame letterboxed into it. The pose is unused:
// the video is head-locked, and reprojection is the runtime's job via
// the layer transform. A nil frame clears only: the loop keeps
// submitting while the decoder has produced nothing yet, or has
// stalled.
func (c *Compositor) RenderView(target xr.RenderTarget, eye int, _ xr.ViewPose, frame *video.Frame) error {
	if pix := target.Pixels(); pix != nil {
		return c.renderCPU(target, pix, eye, frame)
	}
	if target.TextureView() != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gpu == nil {
			return ErrNoDevice
		}
		return c.gpu.render(target, eye, c.layout, frame)
	}
	return ErrUnsupportedTarget
}

// Close releases GPU resources. The compositor remains usable for
// CPU-backed targets afterwards. Safe to call multiple times.
func (c *Compositor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gpu != nil {
		c.gpu.destroy()
	}
}

// renderCPU composes the frame into a CPU-backed target.
func (c *Compositor) renderCPU(target xr.RenderTarget, pix []byte, eye int, frame *video.Frame) error {
	w, h := target.Width(), target.Height()
	clearRGBA(pix, w, h, target.Stride())
	if frame == nil {
		return nil
	}

	if len(frame.Data) < frame.Stride*frame.Height {
		return fmt.Errorf("compositor: frame data %d bytes, need %d", len(frame.Data), frame.Stride*frame.Height)
	}

	sr := sourceRect(frame, eye, c.layout)
	dr := letterbox(w, h, sr.Width, sr.Height)
	if sr.Empty() || dr.Empty() {
		return nil
	}

	src := &image.RGBA{
		Pix:    frame.Data,
		Stride: frame.Stride,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}
	dst := &image.RGBA{
		Pix:    pix,
		Stride: target.Stride(),
		Rect:   image.Rect(0, 0, w, h),
	}

	xdraw.ApproxBiLinear.Scale(dst,
		image.Rect(dr.X, dr.Y, dr.X+dr.Width, dr.Y+dr.Height),
		src,
		image.Rect(sr.X, sr.Y, sr.X+sr.Width, sr.Y+sr.Height),
		xdraw.Src, nil)
	return nil
}

// clearRGBA fills the image with opaque black, honoring the row stride.
func clearRGBA(pix []byte, w, h, stride int) {
	rowLen := w * 4
	for y := range h {
		row := pix[y*stride : y*stride+rowLen]
		for x := 0; x < rowLen; x += 4 {
			row[x] = 0
			row[x+1] = 0
			row[x+2] = 0
			row[x+3] = 0xFF
		}
	}
}

// Ensure Compositor implements the renderer contract.
var _ xr.Renderer = (*Compositor)(nil)
