//go:build !gst

package main

import (
	"context"
	"time"

	"github.com/gogpu/xr/video"
)

var barColors = [...][3]byte{
	{235, 235, 235},
	{235, 235, 16},
	{16, 235, 235},
	{16, 235, 16},
	{235, 16, 235},
	{235, 16, 16},
	{16, 16, 235},
	{16, 16, 16},
}

// startVideoSource feeds a synthetic moving test pattern into the
// bridge at videoFPS until ctx is cancelled. The returned stop function
// halts the generator.
func startVideoSource(ctx context.Context, bridge *video.Bridge) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		period := time.Second / videoFPS
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for tick := 0; ; tick++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			// Each frame owns its pixels; the previous one may still be
			// on the renderer's side of the bridge.
			data := make([]byte, videoWidth*videoHeight*video.BytesPerPixel)
			drawTestPattern(data, videoWidth, videoHeight, tick)
			frame := video.NewFrame(videoWidth, videoHeight, data, time.Duration(tick)*period)
			if bridge.Publish(frame) != nil {
				return
			}
		}
	}()
	return cancel, nil
}

// drawTestPattern paints vertical color bars with a sweeping white
// column so motion is visible in the composition.
func drawTestPattern(data []byte, width, height, tick int) {
	barWidth := width / len(barColors)
	if barWidth == 0 {
		barWidth = 1
	}
	sweep := (tick * 4) % width
	i := 0
	for range height {
		for x := range width {
			bar := min(x/barWidth, len(barColors)-1)
			c := barColors[bar]
			if x == sweep {
				c = [3]byte{255, 255, 255}
			}
			data[i] = c[0]
			data[i+1] = c[1]
			data[i+2] = c[2]
			data[i+3] = 0xFF
			i += 4
		}
	}
}
