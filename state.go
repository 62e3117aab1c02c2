package xr

// SessionState is the lifecycle state of an XR session as reported by the
// runtime. The well-formed forward path is Idle → Ready → Synchronized →
// Visible → Focused; teardown retraces Focused → Visible → Synchronized →
// Stopping and ends in Idle (runtime may restart the cycle) or Exiting
// (final). Session loss forces Idle from any state.
type SessionState int

const (
	// StateIdle: no frame loop activity. The session either does not
	// exist yet or has been stopped and may become Ready again.
	StateIdle SessionState = iota

	// StateReady: the runtime is ready for the session to begin.
	// Entering Ready triggers session creation and swapchain setup.
	StateReady

	// StateSynchronized: the frame loop is synchronized to the display
	// but the output is not visible to the user.
	StateSynchronized

	// StateVisible: frames are shown to the user; input goes elsewhere.
	StateVisible

	// StateFocused: frames are shown and the application has input focus.
	StateFocused

	// StateStopping: the runtime wants the session ended. Entering
	// Stopping ends the session and releases the swapchains.
	StateStopping

	// StateExiting: terminal. The session and all dependent resources
	// are destroyed and the frame loop unwinds.
	StateExiting
)

var stateNames = [...]string{
	StateIdle:         "idle",
	StateReady:        "ready",
	StateSynchronized: "synchronized",
	StateVisible:      "visible",
	StateFocused:      "focused",
	StateStopping:     "stopping",
	StateExiting:      "exiting",
}

// String returns the lowercase state name used in logs and diagnostics.
func (s SessionState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Renderable reports whether the frame loop may run in this state.
// Only Synchronized, Visible and Focused permit frame submission.
func (s SessionState) Renderable() bool {
	switch s {
	case StateSynchronized, StateVisible, StateFocused:
		return true
	default:
		return false
	}
}
