package xr

import "time"

// Time is a timestamp on the runtime's clock, in nanoseconds. It is not
// comparable to wall-clock time; only differences and ordering within one
// runtime are meaningful.
type Time int64

// Add returns the time shifted by d.
func (t Time) Add(d time.Duration) Time {
	return t + Time(d)
}

// Sub returns the duration t - u.
func (t Time) Sub(u Time) time.Duration {
	return time.Duration(t - u)
}

// FrameTiming is the per-frame record returned by WaitFrame. DisplayTime
// is the predicted display time: the moment the runtime expects this
// frame to reach the panel. The same DisplayTime must be used both for
// locating views and for the EndFrame submission; mixing timestamps
// within one frame breaks pose/display consistency.
type FrameTiming struct {
	DisplayTime   Time
	DisplayPeriod time.Duration
	ShouldRender  bool
}
