// Package preview shows composed frames in a desktop window.
//
// It is a development mirror: the frame loop publishes its left-eye
// composition into a second video.Bridge and the window draws whatever
// is latest, scaled to fit. The package is optional glue over
// Ebitengine; nothing in the session or frame-loop core imports it.
package preview

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/xr/video"
)

const (
	defaultTitle  = "xr preview"
	defaultWidth  = 768
	defaultHeight = 768
)

// Window is an Ebitengine game that draws the latest frame from a
// bridge. It never blocks on the publisher: a missing frame draws
// black, a repeated frame reuses the uploaded texture.
type Window struct {
	source *video.Bridge
	title  string
	width  int
	height int

	img     *ebiten.Image
	imgW    int
	imgH    int
	lastSeq uint64
}

// Option configures a Window.
type Option func(*Window)

// WithTitle sets the window title.
func WithTitle(title string) Option {
	return func(w *Window) { w.title = title }
}

// WithSize sets the initial window size in pixels. Values below one
// are ignored.
func WithSize(width, height int) Option {
	return func(w *Window) {
		if width > 0 && height > 0 {
			w.width = width
			w.height = height
		}
	}
}

// NewWindow returns a window mirroring source.
func NewWindow(source *video.Bridge, opts ...Option) (*Window, error) {
	if source == nil {
		return nil, errors.New("preview: nil source")
	}
	w := &Window{
		source: source,
		title:  defaultTitle,
		width:  defaultWidth,
		height: defaultHeight,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run opens the window and blocks until the source closes or the user
// closes the window. Ebitengine owns the main goroutine, so Run must be
// called from it; run the frame loop beside it.
func (w *Window) Run() error {
	ebiten.SetWindowSize(w.width, w.height)
	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	if err := ebiten.RunGame(w); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}

// Update ends the game once the source bridge closes.
func (w *Window) Update() error {
	if w.source.Closed() {
		return ebiten.Termination
	}
	return nil
}

// Draw uploads the latest frame, when it changed, and draws it at the
// logical size reported by Layout.
func (w *Window) Draw(screen *ebiten.Image) {
	frame, ok := w.source.Latest()
	if !ok {
		return
	}
	if w.img == nil || w.imgW != frame.Width || w.imgH != frame.Height {
		if w.img != nil {
			w.img.Dispose()
		}
		w.img = ebiten.NewImage(frame.Width, frame.Height)
		w.imgW, w.imgH = frame.Width, frame.Height
		w.lastSeq = 0
	}
	if frame.Seq != w.lastSeq {
		need := frame.Width * frame.Height * video.BytesPerPixel
		if len(frame.Data) < need {
			return
		}
		w.img.WritePixels(frame.Data[:need])
		w.lastSeq = frame.Seq
	}
	screen.DrawImage(w.img, nil)
}

// Layout reports the source frame size so Ebitengine scales it to the
// window with aspect preserved. Before the first frame it reports the
// configured window size.
func (w *Window) Layout(_, _ int) (int, int) {
	if w.imgW > 0 && w.imgH > 0 {
		return w.imgW, w.imgH
	}
	return w.width, w.height
}
