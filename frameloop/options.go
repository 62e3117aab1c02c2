package frameloop

import (
	"github.com/gogpu/xr/internal/clock"
	"github.com/gogpu/xr/video"
)

// Option configures a Driver.
type Option func(*Driver)

// WithMirror forwards each composed left-eye image to sink as a video
// frame. The sink is a second single-slot bridge: a slow mirror consumer
// never backpressures the frame loop. Only CPU-accessible targets are
// mirrored; texture-only targets skip the forward silently.
func WithMirror(sink *video.Bridge) Option {
	return func(d *Driver) { d.mirror = sink }
}

// WithRebuildLimit bounds consecutive failed session rebuild attempts
// before Run gives up and returns the last error. The default is 3.
// Attempts are consecutive: any successful setup resets the count.
func WithRebuildLimit(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.rebuildLimit = n
		}
	}
}

// withClock substitutes the time source. Tests drive the stats ticker
// and idle pacing deterministically through a fake clock.
func withClock(c clock.Clock) Option {
	return func(d *Driver) { d.clk = c }
}
