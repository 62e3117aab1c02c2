package xr

import (
	"context"
	"time"

	"github.com/gogpu/gputypes"
)

// ReferenceSpaceKind selects the coordinate frame poses are resolved
// against.
type ReferenceSpaceKind int

const (
	// SpaceLocal: seated-scale frame anchored near the user's head at
	// session start.
	SpaceLocal ReferenceSpaceKind = iota

	// SpaceStage: standing-scale frame anchored to the floor.
	SpaceStage

	// SpaceView: frame locked to the head pose itself.
	SpaceView
)

var spaceNames = [...]string{
	SpaceLocal: "local",
	SpaceStage: "stage",
	SpaceView:  "view",
}

func (k ReferenceSpaceKind) String() string {
	if k < 0 || int(k) >= len(spaceNames) {
		return "unknown"
	}
	return spaceNames[k]
}

// EnvironmentBlendMode is how the composited layers mix with the user's
// physical surroundings.
type EnvironmentBlendMode int

const (
	// BlendOpaque: layers fully replace the view. The only mode on
	// opaque video headsets.
	BlendOpaque EnvironmentBlendMode = iota

	// BlendAdditive: layers are summed over the passthrough view.
	BlendAdditive

	// BlendAlphaBlend: layers are alpha-blended over the passthrough view.
	BlendAlphaBlend
)

var blendNames = [...]string{
	BlendOpaque:     "opaque",
	BlendAdditive:   "additive",
	BlendAlphaBlend: "alpha-blend",
}

func (m EnvironmentBlendMode) String() string {
	if m < 0 || int(m) >= len(blendNames) {
		return "unknown"
	}
	return blendNames[m]
}

// ViewSpec is one view's image sizing as reported by the runtime.
// Swapchains are sized from Recommended; Max bounds any override.
type ViewSpec struct {
	Recommended Extent
	Max         Extent
	SampleCount int
}

// ViewConfig describes the stereo view arrangement. Index 0 is the left
// eye. A change in this configuration requires swapchain recreation.
type ViewConfig struct {
	Views []ViewSpec
}

// SwapchainDescriptor carries the creation parameters for one eye's image
// chain. Format comes out of negotiation against the runtime's
// preference list (see SwapchainFormats).
type SwapchainDescriptor struct {
	Format      gputypes.TextureFormat
	Width       int
	Height      int
	SampleCount int
	Usage       TextureUsage
}

// Runtime is the XR runtime boundary: event delivery, capability queries
// and session creation. Implementations must not require a live headset
// for construction; backend/sim satisfies this interface entirely
// in-process.
type Runtime interface {
	// PollEvent returns the next pending lifecycle event, if any.
	// It never blocks and never coalesces events.
	PollEvent() (Event, bool)

	// ViewConfig returns the current stereo view arrangement.
	ViewConfig() ViewConfig

	// SwapchainFormats returns the runtime's supported swapchain image
	// formats in preference order, most preferred first.
	SwapchainFormats() []gputypes.TextureFormat

	// BlendModes returns the supported environment blend modes in
	// preference order.
	BlendModes() []EnvironmentBlendMode

	// CreateSession creates a session against the given graphics
	// binding. The binding must outlive the session: session destruction
	// must precede destruction of the graphics context it was created
	// with. Runtimes that need no real device accept a nil binding.
	CreateSession(binding GraphicsBinding) (Session, error)
}

// Session is one runtime session. At most one session exists per
// graphics-context lifetime; a session is never reused after Destroy.
type Session interface {
	// Begin starts the session's frame protocol. Called on entering
	// Ready, after swapchains exist.
	Begin() error

	// End stops the frame protocol. Called on entering Stopping.
	End() error

	// Destroy releases the session handle. The session must not be used
	// afterwards.
	Destroy() error

	// CreateReferenceSpace creates a coordinate frame of the given kind.
	CreateReferenceSpace(kind ReferenceSpaceKind) (ReferenceSpace, error)

	// CreateSwapchain allocates one eye's image chain.
	CreateSwapchain(desc SwapchainDescriptor) (SwapchainImages, error)

	// WaitFrame blocks until the runtime schedules the next frame and
	// returns its timing record. The sole pacing primitive of the frame
	// loop. Honors ctx cancellation and deadline.
	WaitFrame(ctx context.Context) (FrameTiming, error)

	// BeginFrame marks the start of rendering for the frame most
	// recently returned by WaitFrame. Must be paired with exactly one
	// EndFrame.
	BeginFrame() error

	// EndFrame submits the composition for display at displayTime, which
	// must equal the DisplayTime used for LocateViews this frame. An
	// empty layers slice is a valid submission (nothing rendered).
	EndFrame(displayTime Time, mode EnvironmentBlendMode, layers []CompositionLayer) error

	// LocateViews resolves the per-eye poses in space at the given time.
	// Returns ErrSpaceUntrackable when the space cannot currently be
	// located; callers degrade to their last known poses.
	LocateViews(at Time, space ReferenceSpace) ([]ViewPose, error)
}

// ReferenceSpace is a created coordinate frame.
type ReferenceSpace interface {
	Kind() ReferenceSpaceKind
	Destroy() error
}

// SwapchainImages is one eye's runtime-allocated image chain. Usage
// follows the strict acquire → wait → render → release cycle; any other
// order is a programming error reported as ErrImageCycle.
type SwapchainImages interface {
	// Acquire reserves the next image in the chain and returns its
	// index. The image is not ready for rendering until Wait succeeds.
	Acquire() (int, error)

	// Wait blocks until the most recently acquired image is ready, up to
	// timeout. On timeout it returns an error matching ErrAcquireTimeout
	// and the acquired image must still be released.
	Wait(timeout time.Duration) error

	// Release returns the acquired image to the chain. Exactly one
	// Release per successful Acquire, on every exit path.
	Release() error

	// Len returns the number of images in the chain.
	Len() int

	// Image returns the render target for image index i. The target is
	// only valid for rendering between Wait and Release of that index.
	Image(i int) RenderTarget

	// Destroy frees the chain and its images.
	Destroy() error
}

// CompositionLayer is one projection layer submitted at EndFrame: a set
// of per-eye views resolved against a common reference space.
type CompositionLayer struct {
	Space ReferenceSpace
	Views []LayerView
}

// LayerView is one eye's contribution to a composition layer. A nil
// Swapchain (or empty Rect) submits an empty region for that eye, which
// is how a timed-out acquire degrades without aborting the frame.
type LayerView struct {
	Pose      Pose
	FOV       FOV
	Swapchain SwapchainImages
	Rect      Rect
}

// Empty reports whether this view contributes no pixels.
func (v LayerView) Empty() bool {
	return v.Swapchain == nil || v.Rect.Empty()
}
