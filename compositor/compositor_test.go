package compositor

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/video"
)

// solidFrame builds a tightly packed frame filled with one color.
func solidFrame(w, h int, c color.RGBA) *video.Frame {
	data := make([]byte, w*h*video.BytesPerPixel)
	for i := 0; i < len(data); i += 4 {
		data[i] = c.R
		data[i+1] = c.G
		data[i+2] = c.B
		data[i+3] = c.A
	}
	return video.NewFrame(w, h, data, 0)
}

// splitFrame builds a frame whose two halves carry different colors.
// vertical=true splits left/right, false splits top/bottom.
func splitFrame(w, h int, first, second color.RGBA, vertical bool) *video.Frame {
	data := make([]byte, w*h*video.BytesPerPixel)
	for y := range h {
		for x := range w {
			c := first
			if (vertical && x >= w/2) || (!vertical && y >= h/2) {
				c = second
			}
			i := (y*w + x) * 4
			data[i] = c.R
			data[i+1] = c.G
			data[i+2] = c.B
			data[i+3] = c.A
		}
	}
	return video.NewFrame(w, h, data, 0)
}

func wantPixel(t *testing.T, target *xr.PixmapTarget, x, y int, want color.RGBA) {
	t.Helper()
	got := target.GetPixel(x, y)
	r, g, b, a := got.RGBA()
	gotRGBA := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	if gotRGBA != want {
		t.Errorf("pixel (%d,%d) = %v, want %v", x, y, gotRGBA, want)
	}
}

var (
	black = color.RGBA{A: 255}
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func TestNilFrameClears(t *testing.T) {
	target := xr.NewPixmapTarget(16, 16)
	// Dirty the buffer so the clear is observable.
	pix := target.Pixels()
	for i := range pix {
		pix[i] = 0xAA
	}

	c := New()
	if err := c.RenderView(target, 0, xr.ViewPose{}, nil); err != nil {
		t.Fatalf("RenderView: %v", err)
	}

	wantPixel(t, target, 0, 0, black)
	wantPixel(t, target, 8, 8, black)
	wantPixel(t, target, 15, 15, black)
}

func TestLetterboxWideSource(t *testing.T) {
	target := xr.NewPixmapTarget(100, 100)
	frame := solidFrame(100, 50, red)

	c := New()
	if err := c.RenderView(target, 0, xr.ViewPose{}, frame); err != nil {
		t.Fatalf("RenderView: %v", err)
	}

	// A 2:1 source in a square target leaves 25-pixel bars above and below.
	wantPixel(t, target, 50, 10, black)
	wantPixel(t, target, 50, 50, red)
	wantPixel(t, target, 50, 90, black)
	wantPixel(t, target, 5, 50, red)
	wantPixel(t, target, 95, 50, red)
}

func TestPillarboxTallSource(t *testing.T) {
	target := xr.NewPixmapTarget(100, 100)
	frame := solidFrame(50, 100, red)

	c := New()
	if err := c.RenderView(target, 0, xr.ViewPose{}, frame); err != nil {
		t.Fatalf("RenderView: %v", err)
	}

	wantPixel(t, target, 10, 50, black)
	wantPixel(t, target, 50, 50, red)
	wantPixel(t, target, 90, 50, black)
}

func TestExactFitFillsTarget(t *testing.T) {
	target := xr.NewPixmapTarget(64, 64)
	frame := solidFrame(32, 32, red)

	c := New()
	if err := c.RenderView(target, 0, xr.ViewPose{}, frame); err != nil {
		t.Fatalf("RenderView: %v", err)
	}

	wantPixel(t, target, 0, 0, red)
	wantPixel(t, target, 32, 32, red)
	wantPixel(t, target, 63, 63, red)
}

func TestSideBySideSelectsEyeHalf(t *testing.T) {
	// Left half green, right half blue. Each 40x40 half fills the
	// square target exactly.
	frame := splitFrame(80, 40, green, blue, true)
	c := New(WithLayout(LayoutSideBySide))

	left := xr.NewPixmapTarget(40, 40)
	if err := c.RenderView(left, 0, xr.ViewPose{}, frame); err != nil {
		t.Fatalf("RenderView eye 0: %v", err)
	}
	wantPixel(t, left, 20, 20, green)

	right := xr.NewPixmapTarget(40, 40)
	if err := c.RenderView(right, 1, xr.ViewPose{}, frame); err != nil {
		t.Fatalf("RenderView eye 1: %v", err)
	}
	wantPixel(t, right, 20, 20, blue)
}

func TestTopBottomSelectsEyeHalf(t *testing.T) {
	frame := splitFrame(40, 80, red, green, false)
	c := New(WithLayout(LayoutTopBottom))

	top := xr.NewPixmapTarget(40, 40)
	if err := c.RenderView(top, 0, xr.ViewPose{}, frame); err != nil {
		t.Fatalf("RenderView eye 0: %v", err)
	}
	wantPixel(t, top, 20, 20, red)

	bottom := xr.NewPixmapTarget(40, 40)
	if err := c.RenderView(bottom, 1, xr.ViewPose{}, frame); err != nil {
		t.Fatalf("RenderView eye 1: %v", err)
	}
	wantPixel(t, bottom, 20, 20, green)
}

func TestMonoGivesBothEyesTheSameView(t *testing.T) {
	frame := splitFrame(64, 32, green, blue, true)
	c := New()

	left := xr.NewPixmapTarget(64, 32)
	right := xr.NewPixmapTarget(64, 32)
	if err := c.RenderView(left, 0, xr.ViewPose{}, frame); err != nil {
		t.Fatalf("RenderView eye 0: %v", err)
	}
	if err := c.RenderView(right, 1, xr.ViewPose{}, frame); err != nil {
		t.Fatalf("RenderView eye 1: %v", err)
	}

	if !bytes.Equal(left.Pixels(), right.Pixels()) {
		t.Error("mono layout produced different images for the two eyes")
	}
}

// strideTarget is a CPU target whose rows carry trailing padding, as
// returned by runtimes that align rows for DMA.
type strideTarget struct {
	pix    []byte
	w, h   int
	stride int
}

func (s *strideTarget) Width() int                     { return s.w }
func (s *strideTarget) Height() int                    { return s.h }
func (s *strideTarget) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (s *strideTarget) TextureView() xr.TextureView    { return nil }
func (s *strideTarget) Pixels() []byte                 { return s.pix }
func (s *strideTarget) Stride() int                    { return s.stride }

func TestClearHonorsStride(t *testing.T) {
	const w, h, stride = 4, 3, 24 // 8 padding bytes per row
	target := &strideTarget{w: w, h: h, stride: stride, pix: make([]byte, h*stride)}
	for i := range target.pix {
		target.pix[i] = 0xAA
	}

	c := New()
	if err := c.RenderView(target, 0, xr.ViewPose{}, nil); err != nil {
		t.Fatalf("RenderView: %v", err)
	}

	for y := range h {
		row := target.pix[y*stride:]
		for x := range w {
			if row[x*4] != 0 || row[x*4+3] != 0xFF {
				t.Fatalf("row %d pixel %d not cleared: % x", y, x, row[x*4:x*4+4])
			}
		}
		for i := w * 4; i < stride; i++ {
			if row[i] != 0xAA {
				t.Fatalf("row %d padding byte %d overwritten", y, i)
			}
		}
	}
}

// bareTarget exposes neither pixels nor a texture view.
type bareTarget struct{}

func (bareTarget) Width() int                     { return 8 }
func (bareTarget) Height() int                    { return 8 }
func (bareTarget) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (bareTarget) TextureView() xr.TextureView    { return nil }
func (bareTarget) Pixels() []byte                 { return nil }
func (bareTarget) Stride() int                    { return 0 }

func TestUnsupportedTarget(t *testing.T) {
	c := New()
	err := c.RenderView(bareTarget{}, 0, xr.ViewPose{}, nil)
	if !errors.Is(err, ErrUnsupportedTarget) {
		t.Errorf("RenderView = %v, want ErrUnsupportedTarget", err)
	}
}

// stubView satisfies xr.TextureView without any GPU behind it.
type stubView struct{}

func (stubView) Destroy() {}

func TestTextureTargetWithoutDevice(t *testing.T) {
	target := xr.NewTextureTarget(8, 8, gputypes.TextureFormatRGBA8Unorm, stubView{})
	c := New()
	err := c.RenderView(target, 0, xr.ViewPose{}, nil)
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("RenderView = %v, want ErrNoDevice", err)
	}
}

func TestWithDeviceIgnoresNonHALProvider(t *testing.T) {
	// A provider without HAL accessors leaves the GPU path unconfigured.
	c := New(WithDevice(struct{}{}))
	target := xr.NewTextureTarget(8, 8, gputypes.TextureFormatRGBA8Unorm, stubView{})
	err := c.RenderView(target, 0, xr.ViewPose{}, nil)
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("RenderView = %v, want ErrNoDevice", err)
	}

	// CPU targets keep working regardless.
	if err := c.RenderView(xr.NewPixmapTarget(8, 8), 0, xr.ViewPose{}, nil); err != nil {
		t.Errorf("RenderView on pixmap target: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New()
	c.Close()
	c.Close()
	if err := c.RenderView(xr.NewPixmapTarget(8, 8), 0, xr.ViewPose{}, nil); err != nil {
		t.Errorf("RenderView after Close: %v", err)
	}
}

func TestShortFrameDataRejected(t *testing.T) {
	frame := &video.Frame{Width: 16, Height: 16, Stride: 64, Data: make([]byte, 100)}
	c := New()
	if err := c.RenderView(xr.NewPixmapTarget(16, 16), 0, xr.ViewPose{}, frame); err == nil {
		t.Error("RenderView accepted frame with truncated data")
	}
}
