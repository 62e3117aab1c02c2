// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"sync/atomic"

	"github.com/gogpu/xr"
)

// DeviceSurface wraps an externally created GPU device as a surface
// provider. It does not open a window or create a device: hosts that
// already own one (an engine embedding the player, a harness with a
// headless GPU context) hand it in, and sessions are created against
// that device's binding.
//
// The wrapped device stays owned by the caller. Close marks the
// surface dead but releases nothing.
type DeviceSurface struct {
	binding xr.GraphicsBinding
	extent  xr.Extent
	closed  atomic.Bool
}

// FromDevice wraps a caller-owned device. Returns an error if binding
// is nil.
func FromDevice(binding xr.GraphicsBinding, extent xr.Extent) (*DeviceSurface, error) {
	if binding == nil {
		return nil, errors.New("surface: binding cannot be nil")
	}
	return &DeviceSurface{binding: binding, extent: extent}, nil
}

// Name identifies the backend.
func (s *DeviceSurface) Name() string { return "device" }

// Binding returns the wrapped device binding.
func (s *DeviceSurface) Binding() xr.GraphicsBinding { return s.binding }

// Alive reports true until Close.
func (s *DeviceSurface) Alive() bool { return !s.closed.Load() }

// Extent returns the size given at construction.
func (s *DeviceSurface) Extent() xr.Extent { return s.extent }

// Close marks the surface dead. The device belongs to the caller and
// is not touched. Idempotent.
func (s *DeviceSurface) Close() error {
	s.closed.Store(true)
	return nil
}

var _ Provider = (*DeviceSurface)(nil)

// init registers the device backend. It is only usable when the caller
// passes a binding in Options, so the factory validates that.
func init() {
	Register("device", 50, func(opts Options) (Provider, error) {
		return FromDevice(opts.Binding, opts.Extent)
	}, nil)
}
