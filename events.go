package xr

// EventKind discriminates lifecycle events. Runtime-originated kinds come
// out of Runtime.PollEvent; OS-originated kinds (surface and focus
// callbacks) are injected into the session machine and drained through the
// same path, so all transitions happen on the frame-loop thread.
type EventKind int

const (
	// EventStateChanged: the runtime moved the session to Event.Next.
	EventStateChanged EventKind = iota

	// EventSessionLost: the runtime invalidated the session. The session
	// and every GPU resource tied to it must be torn down and rebuilt.
	EventSessionLost

	// EventSurfaceCreated: the OS created (or recreated) the native
	// drawing surface; session creation becomes possible.
	EventSurfaceCreated

	// EventSurfaceDestroyed: the OS tore down the native surface. An
	// active session is treated as lost; no new session can be created
	// until the surface comes back.
	EventSurfaceDestroyed

	// EventFocusChanged: the OS moved input focus. Event.Focused carries
	// the new focus. Translated into the Visible/Focused pair when the
	// runtime has not already delivered the equivalent state change.
	EventFocusChanged

	// EventViewConfigChanged: the runtime changed the view configuration
	// (resolution, eye count); swapchains must be recreated.
	EventViewConfigChanged
)

var eventKindNames = [...]string{
	EventStateChanged:      "state-changed",
	EventSessionLost:       "session-lost",
	EventSurfaceCreated:    "surface-created",
	EventSurfaceDestroyed:  "surface-destroyed",
	EventFocusChanged:      "focus-changed",
	EventViewConfigChanged: "view-config-changed",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return "unknown"
	}
	return eventKindNames[k]
}

// Event is a single lifecycle event. Kind selects which fields carry
// meaning: Next for EventStateChanged, Focused for EventFocusChanged.
// At is the runtime timestamp of the event, zero when the source has none.
type Event struct {
	Kind    EventKind
	Next    SessionState
	Focused bool
	At      Time
}

// StateEvent is shorthand for the runtime state-change event.
func StateEvent(next SessionState) Event {
	return Event{Kind: EventStateChanged, Next: next}
}
