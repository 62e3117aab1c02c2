// Package xr provides the session and frame-loop core for stereoscopic
// video playback on standalone VR headsets.
//
// # Overview
//
// xr keeps three external subsystems in lockstep every frame: the device's
// XR runtime (session lifecycle, pose prediction, stereo swapchains), a
// hardware-accelerated graphics context, and an external video decoding
// pipeline delivering frame-accurate textures. The package itself holds
// only the boundary types and interfaces; behavior lives in sub-packages:
//
//   - session: the session lifecycle state machine, driven by an explicit
//     transition table over runtime and OS events
//   - frameloop: the per-frame orchestrator (wait, begin, locate, render,
//     submit) and the session rebuild loop
//   - swapchain: per-eye image chains with strict acquire/wait/release
//     tracking and format negotiation
//   - video: the single-slot bridge between the decoder thread and the
//     render thread
//   - compositor: fills swapchain images from the latest video frame
//   - surface: graphics context providers behind a priority registry
//   - backend/sim: an in-process runtime with scripted lifecycle events
//   - backend/preview: an optional desktop window mirroring the
//     left-eye composition
//   - gstplay: a GStreamer appsink adapter feeding the video bridge
//
// # Quick Start
//
//	rt := sim.NewRuntime(sim.Script(
//		sim.StateSequence(xr.StateReady, xr.StateSynchronized,
//			xr.StateVisible, xr.StateFocused),
//	))
//	bridge := video.NewBridge()
//	drv, err := frameloop.New(rt, surface.Headless(), bridge,
//		compositor.New(), xr.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = drv.Run(ctx)
//
// # Architecture
//
// The XR runtime is abstracted behind the Runtime, Session and
// SwapchainImages interfaces so the whole core runs without a headset.
// All timeouts are configuration (see Config), never constants, and no
// operation in the core blocks indefinitely.
package xr
