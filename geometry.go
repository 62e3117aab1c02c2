package xr

// Vector3 is a position or direction in tracking space, in meters.
type Vector3 struct {
	X, Y, Z float32
}

// Quaternion is a rotation. The identity rotation is {0, 0, 0, 1}.
type Quaternion struct {
	X, Y, Z, W float32
}

// Pose is a rigid transform: an orientation and a position relative to
// some reference space.
type Pose struct {
	Orientation Quaternion
	Position    Vector3
}

// IdentityPose returns the pose at the reference space origin with no
// rotation. Used as the fallback when a space is momentarily untrackable
// and no previous pose exists.
func IdentityPose() Pose {
	return Pose{Orientation: Quaternion{W: 1}}
}

// FOV holds the four half-angles of an asymmetric view frustum, in
// radians. AngleLeft and AngleDown are typically negative.
type FOV struct {
	AngleLeft, AngleRight, AngleUp, AngleDown float32
}

// ViewPose pairs one eye's pose with its projection frustum, both resolved
// for a single predicted display time. Recomputed every frame; never
// cached across frames.
type ViewPose struct {
	Pose Pose
	FOV  FOV
}

// Extent is an integer width/height pair in pixels.
type Extent struct {
	Width, Height int
}

// Rect is an axis-aligned pixel rectangle within a swapchain image.
// A zero Rect denotes an empty region.
type Rect struct {
	X, Y, Width, Height int
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}
