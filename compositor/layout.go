package compositor

import (
	"github.com/gogpu/xr"
	"github.com/gogpu/xr/video"
)

// Layout describes how the two eye views are packed into a single
// decoded video frame.
type Layout int

const (
	// LayoutMono presents the full frame to both eyes.
	LayoutMono Layout = iota

	// LayoutSideBySide splits the frame vertically: left half for the
	// left eye, right half for the right eye.
	LayoutSideBySide

	// LayoutTopBottom splits the frame horizontally: top half for the
	// left eye, bottom half for the right eye.
	LayoutTopBottom
)

// String returns the layout name as used in configuration and logs.
func (l Layout) String() string {
	switch l {
	case LayoutMono:
		return "mono"
	case LayoutSideBySide:
		return "side-by-side"
	case LayoutTopBottom:
		return "top-bottom"
	default:
		return "unknown"
	}
}

// sourceRect returns the region of the frame holding the given eye's
// view. Eye 0 is left, eye 1 is right; any further views repeat the
// right eye. Odd frame dimensions round the split down, dropping the
// middle line rather than sharing it between eyes.
func sourceRect(f *video.Frame, eye int, layout Layout) xr.Rect {
	switch layout {
	case LayoutSideBySide:
		half := f.Width / 2
		if eye == 0 {
			return xr.Rect{X: 0, Y: 0, Width: half, Height: f.Height}
		}
		return xr.Rect{X: f.Width - half, Y: 0, Width: half, Height: f.Height}
	case LayoutTopBottom:
		half := f.Height / 2
		if eye == 0 {
			return xr.Rect{X: 0, Y: 0, Width: f.Width, Height: half}
		}
		return xr.Rect{X: 0, Y: f.Height - half, Width: f.Width, Height: half}
	default:
		return xr.Rect{X: 0, Y: 0, Width: f.Width, Height: f.Height}
	}
}

// letterbox returns the largest rectangle with the source aspect ratio
// that fits centered inside dst. A degenerate source or destination
// yields an empty rectangle.
func letterbox(dstW, dstH, srcW, srcH int) xr.Rect {
	if dstW <= 0 || dstH <= 0 || srcW <= 0 || srcH <= 0 {
		return xr.Rect{}
	}
	// Compare aspect ratios without floating point: src wider than dst
	// exactly when srcW*dstH > dstW*srcH.
	if srcW*dstH > dstW*srcH {
		h := dstW * srcH / srcW
		return xr.Rect{X: 0, Y: (dstH - h) / 2, Width: dstW, Height: h}
	}
	w := dstH * srcW / srcH
	return xr.Rect{X: (dstW - w) / 2, Y: 0, Width: w, Height: dstH}
}
