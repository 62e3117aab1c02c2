package xr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the session/frame-loop core. Callers match them
// with errors.Is; runtime-reported failures additionally carry a Result
// code via RuntimeError.
var (
	// ErrSessionLost indicates the runtime invalidated the session.
	// Every GPU resource tied to the old session is invalid. Recoverable
	// at the top level by reconstructing the session.
	ErrSessionLost = errors.New("xr: session lost")

	// ErrSessionExists is returned when creating a session while one
	// already exists for the current graphics context.
	ErrSessionExists = errors.New("xr: session already exists")

	// ErrNoSurface indicates no native drawing surface is available, so
	// no graphics binding (and therefore no session) can be created.
	ErrNoSurface = errors.New("xr: no drawing surface available")

	// ErrNotRenderable is returned by frame operations outside the
	// Synchronized/Visible/Focused states.
	ErrNotRenderable = errors.New("xr: session not in a renderable state")

	// ErrAcquireTimeout indicates a bounded swapchain image wait expired.
	// Transient: the frame is dropped for that eye only.
	ErrAcquireTimeout = errors.New("xr: swapchain image wait timed out")

	// ErrSpaceUntrackable indicates the reference space could not be
	// located at the requested time. Transient: callers degrade to the
	// last known poses.
	ErrSpaceUntrackable = errors.New("xr: reference space momentarily untrackable")

	// ErrNoCompatibleFormat indicates format negotiation found no overlap
	// between the runtime's swapchain formats and the application's.
	// Session-fatal.
	ErrNoCompatibleFormat = errors.New("xr: no compatible swapchain format")

	// ErrImageCycle indicates the acquire/wait/release sequence was
	// violated for a swapchain image. This is a programming error, not a
	// recoverable condition.
	ErrImageCycle = errors.New("xr: swapchain image cycle violation")
)

// Result classifies a runtime-reported failure. The zero value is
// ResultSuccess.
type Result int

const (
	ResultSuccess Result = iota

	// ResultTimeout: a bounded wait expired before the runtime signaled.
	ResultTimeout

	// ResultSessionLost: the runtime invalidated the session mid-call.
	ResultSessionLost

	// ResultSessionNotRunning: a frame call arrived outside the running
	// span of the session (before Begin or after End).
	ResultSessionNotRunning

	// ResultFormatUnsupported: the requested swapchain format is not
	// offered by the runtime.
	ResultFormatUnsupported

	// ResultCallOrder: calls violated a runtime-dictated sequence, such
	// as the image acquire/wait/release cycle or begin/end pairing.
	ResultCallOrder

	// ResultFailure: unclassified runtime failure.
	ResultFailure
)

var resultNames = [...]string{
	ResultSuccess:           "success",
	ResultTimeout:           "timeout",
	ResultSessionLost:       "session lost",
	ResultSessionNotRunning: "session not running",
	ResultFormatUnsupported: "format unsupported",
	ResultCallOrder:         "call order violation",
	ResultFailure:           "failure",
}

func (r Result) String() string {
	if r < 0 || int(r) >= len(resultNames) {
		return "unknown"
	}
	return resultNames[r]
}

// RuntimeError is a failed runtime operation together with its result
// classification. Op names the operation in the runtime's vocabulary
// ("wait_frame", "acquire_image", "end_frame", ...).
type RuntimeError struct {
	Op   string
	Code Result
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("xr: %s: %s", e.Op, e.Code)
}

// Transient reports whether the failure is recoverable within the frame
// by skipping the affected eye or iteration.
func (e *RuntimeError) Transient() bool {
	return e.Code == ResultTimeout
}

// SessionFatal reports whether the failure requires a full session
// teardown and rebuild.
func (e *RuntimeError) SessionFatal() bool {
	switch e.Code {
	case ResultSessionLost, ResultSessionNotRunning, ResultFormatUnsupported:
		return true
	default:
		return false
	}
}

// Is maps result codes onto the package sentinels so that callers can use
// errors.Is uniformly regardless of whether a failure originated as a
// sentinel or as a coded runtime error.
func (e *RuntimeError) Is(target error) bool {
	switch target {
	case ErrSessionLost:
		return e.Code == ResultSessionLost
	case ErrAcquireTimeout:
		return e.Code == ResultTimeout
	case ErrNoCompatibleFormat:
		return e.Code == ResultFormatUnsupported
	case ErrImageCycle:
		return e.Code == ResultCallOrder
	default:
		return false
	}
}
