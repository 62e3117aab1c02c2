// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"sync/atomic"

	"github.com/gogpu/xr"
)

// HeadlessSurface is the CPU-only provider. It has no native window
// and no GPU device; sessions created against it render into CPU
// images. Always available, which makes it the fallback backend and
// the usual choice for tests and offscreen rendering.
type HeadlessSurface struct {
	closed atomic.Bool
}

// Headless returns a new headless provider.
func Headless() *HeadlessSurface {
	return &HeadlessSurface{}
}

// Name identifies the backend.
func (s *HeadlessSurface) Name() string { return "headless" }

// Binding returns the null binding; there is no device to bind.
func (s *HeadlessSurface) Binding() xr.GraphicsBinding { return xr.NullBinding{} }

// Alive reports true until Close.
func (s *HeadlessSurface) Alive() bool { return !s.closed.Load() }

// Extent reports zero; a headless surface has no inherent size.
func (s *HeadlessSurface) Extent() xr.Extent { return xr.Extent{} }

// Close marks the surface dead. Idempotent.
func (s *HeadlessSurface) Close() error {
	s.closed.Store(true)
	return nil
}

var _ Provider = (*HeadlessSurface)(nil)
