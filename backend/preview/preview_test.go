package preview

import (
	"errors"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/xr/video"
)

func TestNewWindowRejectsNilSource(t *testing.T) {
	if _, err := NewWindow(nil); err == nil {
		t.Fatal("NewWindow(nil) returned no error")
	}
}

func TestNewWindowDefaults(t *testing.T) {
	w, err := NewWindow(video.NewBridge())
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if w.title != defaultTitle {
		t.Errorf("title = %q, want %q", w.title, defaultTitle)
	}
	if w.width != defaultWidth || w.height != defaultHeight {
		t.Errorf("size = %dx%d, want %dx%d", w.width, w.height, defaultWidth, defaultHeight)
	}
}

func TestOptionsOverrideDefaults(t *testing.T) {
	w, err := NewWindow(video.NewBridge(), WithTitle("mirror"), WithSize(320, 200))
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if w.title != "mirror" {
		t.Errorf("title = %q, want %q", w.title, "mirror")
	}
	if w.width != 320 || w.height != 200 {
		t.Errorf("size = %dx%d, want 320x200", w.width, w.height)
	}
}

func TestWithSizeIgnoresNonPositive(t *testing.T) {
	w, err := NewWindow(video.NewBridge(), WithSize(0, -1))
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if w.width != defaultWidth || w.height != defaultHeight {
		t.Errorf("size = %dx%d, want defaults kept", w.width, w.height)
	}
}

func TestUpdateEndsWhenSourceCloses(t *testing.T) {
	src := video.NewBridge()
	w, err := NewWindow(src)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if err := w.Update(); err != nil {
		t.Fatalf("Update on open source: %v", err)
	}
	src.Close()
	if err := w.Update(); !errors.Is(err, ebiten.Termination) {
		t.Fatalf("Update after close = %v, want ebiten.Termination", err)
	}
}

func TestLayoutTracksFrameSize(t *testing.T) {
	w, err := NewWindow(video.NewBridge(), WithSize(640, 480))
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if gw, gh := w.Layout(1920, 1080); gw != 640 || gh != 480 {
		t.Errorf("Layout before first frame = %dx%d, want 640x480", gw, gh)
	}
	w.imgW, w.imgH = 512, 256
	if gw, gh := w.Layout(1920, 1080); gw != 512 || gh != 256 {
		t.Errorf("Layout with frame = %dx%d, want 512x256", gw, gh)
	}
}
