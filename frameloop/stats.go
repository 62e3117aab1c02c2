package frameloop

import "sync/atomic"

// Stats holds the driver's frame counters. Fields are atomics because
// Snapshot may be read from any goroutine while the loop runs; the loop
// itself is the only writer.
type Stats struct {
	frames          atomic.Uint64
	skipped         atomic.Uint64
	emptyViews      atomic.Uint64
	videoFrames     atomic.Uint64
	losses          atomic.Uint64
	waitTimeouts    atomic.Uint64
	locateFallbacks atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the driver counters.
type StatsSnapshot struct {
	// Frames is the number of completed frames (EndFrame succeeded),
	// including empty submissions.
	Frames uint64

	// Skipped counts frames submitted empty because the runtime asked
	// for no rendering or the session left a renderable state mid-frame.
	Skipped uint64

	// EmptyViews counts per-eye empty contributions caused by image
	// wait timeouts or compositor failures.
	EmptyViews uint64

	// VideoFrames is the number of distinct video frames composed at
	// least once. Published minus this (minus the slot occupant) is the
	// freshness cost of the single-slot bridge.
	VideoFrames uint64

	// Losses counts session losses observed by the loop.
	Losses uint64

	// WaitTimeouts counts WaitFrame calls that exceeded the configured
	// bound.
	WaitTimeouts uint64

	// LocateFallbacks counts frames rendered with last-known poses
	// because the reference space was momentarily untrackable.
	LocateFallbacks uint64
}

// Snapshot returns a consistent-enough copy of the counters for
// diagnostics. Counters are read individually; a frame completing
// concurrently may be visible in some fields and not others.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Frames:          s.frames.Load(),
		Skipped:         s.skipped.Load(),
		EmptyViews:      s.emptyViews.Load(),
		VideoFrames:     s.videoFrames.Load(),
		Losses:          s.losses.Load(),
		WaitTimeouts:    s.waitTimeouts.Load(),
		LocateFallbacks: s.locateFallbacks.Load(),
	}
}
