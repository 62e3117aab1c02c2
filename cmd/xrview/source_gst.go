//go:build gst

package main

import (
	"context"
	"fmt"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/gogpu/xr/gstplay"
	"github.com/gogpu/xr/video"
)

// startVideoSource builds a GStreamer test pipeline and streams its
// RGBA output into the bridge. The returned stop function tears the
// pipeline down.
func startVideoSource(ctx context.Context, bridge *video.Bridge) (func(), error) {
	pipeline, sink, err := gstplay.TestSource(videoWidth, videoHeight, videoFPS)
	if err != nil {
		return nil, err
	}
	gstplay.Attach(sink, bridge)
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("xrview: start pipeline: %w", err)
	}
	go func() {
		<-ctx.Done()
		_ = pipeline.SetState(gst.StateNull)
	}()
	return func() { _ = pipeline.SetState(gst.StateNull) }, nil
}
