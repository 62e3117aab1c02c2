package swapchain

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr"
)

// supportedFormats are the image formats the compositor can render
// into, in no particular order. The runtime's preference order decides
// the final pick.
var supportedFormats = []gputypes.TextureFormat{
	gputypes.TextureFormatRGBA8Unorm,
	gputypes.TextureFormatRGBA8UnormSrgb,
	gputypes.TextureFormatBGRA8Unorm,
}

// NegotiateFormat picks the first format from the runtime's
// preference-ordered list that the compositor supports. An empty or
// disjoint list is session-fatal: xr.ErrNoCompatibleFormat.
func NegotiateFormat(runtimeFormats []gputypes.TextureFormat) (gputypes.TextureFormat, error) {
	for _, rf := range runtimeFormats {
		for _, sf := range supportedFormats {
			if rf == sf {
				return rf, nil
			}
		}
	}
	return gputypes.TextureFormatUndefined,
		fmt.Errorf("swapchain: runtime offers %v: %w", runtimeFormats, xr.ErrNoCompatibleFormat)
}
