// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package xr

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// GraphicsBinding provides the GPU device access a runtime session is
// created against.
//
// This interface is the integration point between xr and GPU frameworks
// like gogpu. The surface provider (see the surface package) owns the
// native surface and graphics context and exposes them through this
// binding; the session machine passes it to Runtime.CreateSession.
//
// Key principle: xr RECEIVES the device from the surface provider, it
// does NOT create one. This keeps device ownership in one place and lets
// the runtime, the compositor and any host application share a single
// GPU context.
//
// GraphicsBinding is an alias for gpucontext.DeviceProvider, providing an
// xr-specific name for the interface while maintaining full compatibility
// with the gpucontext ecosystem.
type GraphicsBinding = gpucontext.DeviceProvider

// TextureUsage specifies how a swapchain image can be used.
// These flags can be combined with bitwise OR.
type TextureUsage uint32

const (
	// TextureUsageCopySrc allows the image to be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << iota

	// TextureUsageCopyDst allows the image to be used as a copy destination.
	TextureUsageCopyDst

	// TextureUsageSampled allows the image to be sampled from a shader.
	TextureUsageSampled

	// TextureUsageStorage allows the image to be used as a storage binding.
	TextureUsageStorage

	// TextureUsageColorAttachment allows rendering into the image.
	TextureUsageColorAttachment
)

// DefaultSwapchainUsage is the usage the compositor needs: images are
// rendered into and then sampled by the runtime's compositor.
const DefaultSwapchainUsage = TextureUsageSampled | TextureUsageColorAttachment | TextureUsageCopyDst

// NullBinding is a GraphicsBinding with nil implementations. Used for
// CPU-only rendering where no GPU device exists, such as the headless
// surface provider and the simulated runtime.
type NullBinding struct{}

// Device returns nil for the null binding.
func (NullBinding) Device() gpucontext.Device { return nil }

// Queue returns nil for the null binding.
func (NullBinding) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null binding.
func (NullBinding) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null binding.
func (NullBinding) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullBinding implements GraphicsBinding.
var _ GraphicsBinding = NullBinding{}
