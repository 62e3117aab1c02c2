// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import "github.com/gogpu/xr"

// Provider is a native drawing surface: the window, display or
// offscreen target a session renders into. It supplies the graphics
// binding sessions are created against and reports whether the
// underlying surface still exists.
//
// Providers are NOT thread-safe. Alive may be polled from the
// frame-loop goroutine while the windowing system runs elsewhere;
// implementations backed by real windows must make Alive safe for
// that, the rest of the interface is single-goroutine.
type Provider interface {
	// Name identifies the backend that produced this provider.
	Name() string

	// Binding returns the graphics binding for session creation. CPU
	// providers return a null binding; sessions created against it
	// render into CPU images.
	Binding() xr.GraphicsBinding

	// Alive reports whether the native surface still exists. A session
	// rendering into a dead surface must be torn down; the session
	// layer treats Alive going false as session loss.
	Alive() bool

	// Extent returns the surface dimensions in pixels when known.
	// Headless providers report zero.
	Extent() xr.Extent

	// Close releases the native surface. After Close, Alive reports
	// false. Close is idempotent; multiple calls are safe.
	Close() error
}

// ResizableProvider is an optional interface for surfaces whose size
// can change after creation, typically real windows.
type ResizableProvider interface {
	Provider

	// Resize changes the surface dimensions.
	Resize(extent xr.Extent) error
}
