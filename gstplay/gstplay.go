// Package gstplay feeds decoded GStreamer video into the frame loop.
//
// The package adapts an appsink to the single-slot video bridge: each
// decoded sample is copied out of GStreamer's buffer pool on the
// streaming thread and published, so the render thread never touches
// GStreamer memory and the decoder never blocks on the renderer.
package gstplay

import (
	"fmt"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/video"
)

// Attach installs pull callbacks on sink that publish every decoded
// sample to bridge. The sink must be negotiated to RGBA; width and
// height come from each sample's caps, so a mid-stream renegotiation is
// picked up frame by frame.
//
// Callbacks run on GStreamer's streaming thread. A closed bridge ends
// the stream; a malformed sample is skipped, not fatal, the way a
// long-running player treats a single corrupt frame.
func Attach(sink *app.Sink, bridge *video.Bridge) {
	sink.SetCallbacks(&app.SinkCallbacks{
		EOSFunc: func(*app.Sink) {
			xr.Logger().Info("gstplay: end of stream")
		},
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return deliver(sink, bridge)
		},
	})
}

func deliver(sink *app.Sink, bridge *video.Bridge) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		xr.Logger().Warn("gstplay: no sample on new-sample signal")
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		xr.Logger().Warn("gstplay: sample without buffer")
		return gst.FlowOK
	}

	width, height, ok := sampleDims(sample)
	if !ok {
		xr.Logger().Warn("gstplay: sample without raw video dimensions")
		return gst.FlowOK
	}

	// Copy the pixels out while mapped; the buffer goes back to
	// GStreamer's pool before the frame is published.
	mapInfo := buffer.Map(gst.MapRead)
	src := mapInfo.Bytes()
	need := width * height * video.BytesPerPixel
	if len(src) < need {
		buffer.Unmap()
		xr.Logger().Warn("gstplay: short buffer", "have", len(src), "need", need)
		return gst.FlowOK
	}
	data := make([]byte, need)
	copy(data, src)
	buffer.Unmap()

	pts := buffer.PresentationTimestamp()
	if pts < 0 {
		pts = 0
	}

	frame := video.NewFrame(width, height, data, pts)
	if err := bridge.Publish(frame); err != nil {
		xr.Logger().Info("gstplay: bridge closed, ending stream")
		return gst.FlowEOS
	}
	xr.Logger().Debug("gstplay: frame published",
		"width", width, "height", height, "pts", pts, "trace_id", frame.TraceID)
	return gst.FlowOK
}

// sampleDims reads the negotiated width and height off the sample's
// caps.
func sampleDims(sample *gst.Sample) (width, height int, ok bool) {
	caps := sample.GetCaps()
	if caps == nil || caps.GetSize() == 0 {
		return 0, 0, false
	}
	st := caps.GetStructureAt(0)
	if st == nil {
		return 0, 0, false
	}
	w, err := st.GetValue("width")
	if err != nil {
		return 0, 0, false
	}
	h, err := st.GetValue("height")
	if err != nil {
		return 0, 0, false
	}
	width, wok := w.(int)
	height, hok := h.(int)
	return width, height, wok && hok && width > 0 && height > 0
}

// TestSource builds a videotestsrc→videoconvert→appsink pipeline
// delivering RGBA frames at the given size and rate, for demos and soak
// runs without real media. The pipeline comes back in the NULL state;
// the caller starts it and owns teardown.
func TestSource(width, height, fps int) (*gst.Pipeline, *app.Sink, error) {
	if width <= 0 || height <= 0 || fps <= 0 {
		return nil, nil, fmt.Errorf("gstplay: invalid test source %dx%d@%d", width, height, fps)
	}
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, nil, fmt.Errorf("gstplay: create pipeline: %w", err)
	}

	src, err := gst.NewElement("videotestsrc")
	if err != nil {
		return nil, nil, fmt.Errorf("gstplay: create videotestsrc: %w", err)
	}
	src.SetProperty("is-live", true)

	convert, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, nil, fmt.Errorf("gstplay: create videoconvert: %w", err)
	}

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, nil, fmt.Errorf("gstplay: create capsfilter: %w", err)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString(fmt.Sprintf(
		"video/x-raw,format=RGBA,width=%d,height=%d,framerate=%d/1",
		width, height, fps)))

	sink, err := app.NewAppSink()
	if err != nil {
		return nil, nil, fmt.Errorf("gstplay: create appsink: %w", err)
	}
	// Never queue behind the bridge: the newest decoded frame wins.
	sink.SetProperty("sync", false)
	sink.SetProperty("max-buffers", 1)
	sink.SetProperty("drop", true)

	pipeline.AddMany(src, convert, capsfilter, sink.Element)
	if err := gst.ElementLinkMany(src, convert, capsfilter, sink.Element); err != nil {
		return nil, nil, fmt.Errorf("gstplay: link test pipeline: %w", err)
	}
	return pipeline, sink, nil
}
