package xr

import "github.com/gogpu/xr/video"

// Renderer draws one eye's view of the current video frame into a
// swapchain image. The frame loop calls RenderView once per eye per
// frame, between Acquire and Release on the eye's swapchain.
//
// A nil frame means no video has arrived yet; implementations render a
// clear in that case. Implementations must not retain target or frame
// past the call.
//
// The compositor package provides the standard implementation.
type Renderer interface {
	RenderView(target RenderTarget, eye int, pose ViewPose, frame *video.Frame) error
}
