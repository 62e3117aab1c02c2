// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides the native drawing surfaces XR sessions
// render into.
//
// A Provider represents the window, display handle or offscreen target
// the runtime composites to. It supplies the graphics binding sessions
// are created against and reports whether the underlying surface still
// exists, which is what the session machinery polls before building or
// keeping a session.
//
// # Architecture
//
// The package decouples session construction from windowing: the
// session layer only sees Provider, so the same frame-loop code runs
// against a platform window, an engine-owned device, or no surface at
// all. Built in:
//
//   - Headless: CPU-only provider, always available. Sessions created
//     against it render into CPU images.
//   - FromDevice: wraps an externally created GPU device. For hosts
//     that already own a device and want the runtime to render with it.
//
// # Registry
//
// Windowing backends register themselves so hosts can auto-select the
// best available surface without linking every platform:
//
//	func init() {
//	    surface.Register("wayland", 100, openWaylandSurface, waylandAvailable)
//	}
//
//	// Later:
//	p, err := surface.Open(surface.Options{Title: "player"})
//	// or a specific backend:
//	p, err := surface.OpenByName("wayland", surface.Options{})
//
// Open walks registered backends in priority order and returns the
// first that opens. The headless provider registers at low priority,
// so a process with no windowing backend still gets a usable surface.
//
// # Usage
//
//	p := surface.Headless()
//	defer p.Close()
//
//	// p satisfies the session layer's binding source.
//	machine := session.New(runtime, p, cfg)
package surface
