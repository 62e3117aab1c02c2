// Command xrview runs the stereo video frame loop against the
// simulated runtime, feeding it a test video source and optionally
// mirroring the left-eye composition to a desktop window.
//
// The default video source is a synthetic pattern generator; build with
// -tags gst to use a GStreamer videotestsrc pipeline instead.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/backend/preview"
	"github.com/gogpu/xr/backend/sim"
	"github.com/gogpu/xr/compositor"
	"github.com/gogpu/xr/frameloop"
	"github.com/gogpu/xr/internal/clock"
	"github.com/gogpu/xr/surface"
	"github.com/gogpu/xr/video"
)

const (
	videoWidth  = 640
	videoHeight = 360
	videoFPS    = 30
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config")
		mirror     = flag.Bool("mirror", false, "mirror left-eye output in a desktop window")
	)
	flag.Parse()

	xr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(*configPath, *mirror); err != nil {
		xr.Logger().Error("xrview failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, mirror bool) error {
	cfg := xr.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = xr.LoadConfig(configPath)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := sim.NewRuntime(
		sim.Script(sim.StateSequence(
			xr.StateReady, xr.StateSynchronized, xr.StateVisible, xr.StateFocused,
		)),
		sim.WithClock(clock.Real()),
		sim.WithDisplayPeriod(11*time.Millisecond),
	)

	bridge := video.NewBridge()
	defer bridge.Close()
	stopSource, err := startVideoSource(ctx, bridge)
	if err != nil {
		return err
	}
	defer stopSource()

	var (
		opts         []frameloop.Option
		mirrorBridge *video.Bridge
	)
	if mirror {
		mirrorBridge = video.NewBridge()
		opts = append(opts, frameloop.WithMirror(mirrorBridge))
	}

	drv, err := frameloop.New(rt, surface.Headless(), bridge, compositor.New(), cfg, opts...)
	if err != nil {
		return err
	}

	if mirrorBridge == nil {
		return loopResult(drv.Run(ctx))
	}

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- drv.Run(ctx)
		// Ends the preview window.
		mirrorBridge.Close()
	}()

	windowErr := runPreview(mirrorBridge)
	stop()
	if err := loopResult(<-loopErr); err != nil {
		return err
	}
	return windowErr
}

// runPreview blocks on the main goroutine until the mirror source
// closes or the user closes the window.
func runPreview(src *video.Bridge) error {
	wnd, err := preview.NewWindow(src, preview.WithTitle("xrview"))
	if err != nil {
		return err
	}
	return wnd.Run()
}

// loopResult filters the expected interrupt unwind out of the frame
// loop's error.
func loopResult(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
