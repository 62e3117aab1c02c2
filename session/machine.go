// Package session owns the runtime session lifecycle. A Machine holds
// the session handle, reference space and swapchains, and advances a
// state value through an explicit transition table as lifecycle events
// arrive. Callers drain events with PollEvents once per frame and ask
// ShouldRunFrameLoop whether frame pacing calls are currently legal.
//
// All methods except Inject must be called from a single goroutine,
// conventionally the frame-loop thread. Inject marshals events from
// other goroutines (window system callbacks, signal handlers) onto
// that thread.
package session

import (
	"fmt"
	"sync"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/swapchain"
)

// BindingSource supplies the graphics binding a session is created
// against and reports whether the underlying drawing surface is still
// usable. The surface package's providers satisfy this.
type BindingSource interface {
	Binding() xr.GraphicsBinding
	Alive() bool
}

// Transition records one applied state change. Events that do not
// change state (ignored pairs, surface notifications) produce none.
type Transition struct {
	From, To xr.SessionState
	Event    xr.Event
}

// Machine drives a session through its lifecycle. The zero value is
// not usable; construct with New.
type Machine struct {
	runtime xr.Runtime
	binding BindingSource
	cfg     xr.Config

	state     xr.SessionState
	sess      xr.Session
	spaces    map[xr.ReferenceSpaceKind]xr.ReferenceSpace
	chains    *swapchain.Manager
	surfaceOK bool
	frames    uint64

	injectMu sync.Mutex
	injected []xr.Event
}

// New returns a Machine in the Idle state. No runtime calls are made
// until the first Ready event arrives through PollEvents.
func New(rt xr.Runtime, binding BindingSource, cfg xr.Config) *Machine {
	return &Machine{
		runtime:   rt,
		binding:   binding,
		cfg:       cfg,
		state:     xr.StateIdle,
		spaces:    make(map[xr.ReferenceSpaceKind]xr.ReferenceSpace),
		surfaceOK: binding.Alive(),
	}
}

// State reports the current lifecycle state.
func (m *Machine) State() xr.SessionState { return m.state }

// Session exposes the live session handle, or nil outside the
// Ready..Stopping span.
func (m *Machine) Session() xr.Session { return m.sess }

// Space returns the reference space configured for rendering, or nil
// before the session is built.
func (m *Machine) Space() xr.ReferenceSpace { return m.spaces[m.cfg.ReferenceSpace] }

// Chains returns the swapchain manager, or nil outside the running span.
func (m *Machine) Chains() *swapchain.Manager { return m.chains }

// ShouldRunFrameLoop reports whether WaitFrame/BeginFrame/EndFrame
// calls are currently legal: the state is one the runtime expects
// frames in and a session exists to receive them.
func (m *Machine) ShouldRunFrameLoop() bool {
	return m.state.Renderable() && m.sess != nil
}

// NoteFrame counts one completed frame iteration.
func (m *Machine) NoteFrame() { m.frames++ }

// Frames reports how many frame iterations completed over the
// machine's lifetime, across session rebuilds.
func (m *Machine) Frames() uint64 { return m.frames }

// Inject queues a lifecycle event for the next PollEvents drain.
// Injected events are applied before the runtime's own queue. Safe to
// call from any goroutine.
func (m *Machine) Inject(ev xr.Event) {
	m.injectMu.Lock()
	m.injected = append(m.injected, ev)
	m.injectMu.Unlock()
}

func (m *Machine) takeInjected() []xr.Event {
	m.injectMu.Lock()
	defer m.injectMu.Unlock()
	evs := m.injected
	m.injected = nil
	return evs
}

// PollEvents drains injected events and then the runtime's queue,
// applying each in order, and returns the state changes that resulted.
// It never blocks.
//
// A session-fatal condition (loss event, surface torn away, swapchain
// rebuild failure) comes back as an error wrapping xr.ErrSessionLost
// after the machine has already torn down and forced itself to Idle.
// A failed Ready entry comes back as its cause with the machine still
// Idle; the runtime will re-deliver Ready, so the caller decides how
// many such failures to tolerate. Remaining queued events are still
// processed either way.
func (m *Machine) PollEvents() ([]Transition, error) {
	var trs []Transition
	var firstErr error

	apply := func(ev xr.Event) {
		tr, changed, err := m.apply(ev)
		if changed {
			trs = append(trs, tr)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, ev := range m.takeInjected() {
		apply(ev)
	}
	for {
		ev, ok := m.runtime.PollEvent()
		if !ok {
			break
		}
		apply(ev)
	}
	return trs, firstErr
}

// ForceLoss is for the frame-loop driver: when a mid-frame runtime
// call reports session loss before the event queue delivers it, the
// driver calls ForceLoss to tear down immediately instead of waiting a
// poll cycle. The returned error wraps xr.ErrSessionLost.
func (m *Machine) ForceLoss(cause error) error {
	_, _, err := m.forceLoss(xr.Event{Kind: xr.EventSessionLost, At: 0}, cause)
	return err
}

// Destroy releases the session and everything hanging off it. The
// machine returns to Idle and may be reused.
func (m *Machine) Destroy() {
	m.teardownSession()
	m.state = xr.StateIdle
}

func (m *Machine) apply(ev xr.Event) (Transition, bool, error) {
	switch ev.Kind {
	case xr.EventStateChanged:
		return m.applyStateChange(ev, ev.Next)

	case xr.EventSessionLost:
		return m.forceLoss(ev, nil)

	case xr.EventSurfaceCreated:
		m.surfaceOK = true
		xr.Logger().Info("drawing surface available")
		return Transition{}, false, nil

	case xr.EventSurfaceDestroyed:
		m.surfaceOK = false
		if m.sess != nil {
			// The session renders into that surface; losing it
			// mid-session is indistinguishable from runtime loss.
			xr.Logger().Warn("drawing surface destroyed under a live session")
			return m.forceLoss(ev, xr.ErrNoSurface)
		}
		return Transition{}, false, nil

	case xr.EventFocusChanged:
		next := xr.StateVisible
		if ev.Focused {
			next = xr.StateFocused
		}
		if _, ok := stateRules[stateKey{m.state, next}]; !ok {
			xr.Logger().Debug("focus change ignored", "state", m.state, "focused", ev.Focused)
			return Transition{}, false, nil
		}
		return m.applyStateChange(ev, next)

	case xr.EventViewConfigChanged:
		if err := m.recreateChains(); err != nil {
			return m.forceLoss(ev, err)
		}
		return Transition{}, false, nil

	default:
		xr.Logger().Debug("unhandled event", "kind", ev.Kind)
		return Transition{}, false, nil
	}
}

// applyStateChange runs one row of the transition table. Pairs not in
// the table are dropped: runtimes may repeat a state or report changes
// the machine has already applied through the loss path, and replaying
// those must not corrupt the lifecycle.
func (m *Machine) applyStateChange(ev xr.Event, next xr.SessionState) (Transition, bool, error) {
	rule, ok := stateRules[stateKey{from: m.state, to: next}]
	if !ok {
		xr.Logger().Warn("ignoring out-of-order state change", "from", m.state, "to", next)
		return Transition{}, false, nil
	}
	if rule.effect != nil {
		if err := rule.effect(m, ev); err != nil {
			xr.Logger().Warn("state entry failed", "from", m.state, "to", next, "error", err)
			return Transition{}, false, err
		}
	}
	tr := Transition{From: m.state, To: next, Event: ev}
	m.state = next
	xr.Logger().Info("session state", "from", tr.From, "to", tr.To)
	return tr, true, nil
}

// enterReady builds the rendering session: create the session against
// the surface's binding if none survives from an earlier cycle, ensure
// the configured reference space, create per-eye swapchains, and begin
// the session. Any failure tears the partial build back down and
// leaves the machine Idle.
func (m *Machine) enterReady(xr.Event) error {
	if !m.surfaceOK {
		return fmt.Errorf("session: enter ready: %w", xr.ErrNoSurface)
	}
	if m.sess == nil {
		sess, err := m.runtime.CreateSession(m.binding.Binding())
		if err != nil {
			return fmt.Errorf("session: create: %w", err)
		}
		m.sess = sess
		xr.Logger().Info("session created")
	}
	if m.spaces[m.cfg.ReferenceSpace] == nil {
		sp, err := m.sess.CreateReferenceSpace(m.cfg.ReferenceSpace)
		if err != nil {
			m.teardownSession()
			return fmt.Errorf("session: create %v space: %w", m.cfg.ReferenceSpace, err)
		}
		m.spaces[m.cfg.ReferenceSpace] = sp
	}
	if m.chains == nil {
		chains, err := swapchain.Create(m.sess, m.runtime.ViewConfig(), m.runtime.SwapchainFormats(), m.cfg.ImageWaitTimeout)
		if err != nil {
			m.teardownSession()
			return err
		}
		m.chains = chains
	}
	if err := m.sess.Begin(); err != nil {
		m.teardownSession()
		return fmt.Errorf("session: begin: %w", err)
	}
	return nil
}

// enterStopping ends the session and drops the swapchains. The session
// handle itself survives so a later Ready can begin it again without a
// full rebuild.
func (m *Machine) enterStopping(xr.Event) error {
	if m.sess != nil {
		if err := m.sess.End(); err != nil {
			xr.Logger().Warn("end session", "error", err)
		}
	}
	if m.chains != nil {
		m.chains.Destroy()
		m.chains = nil
	}
	return nil
}

func (m *Machine) enterExiting(xr.Event) error {
	m.teardownSession()
	return nil
}

// forceLoss is the out-of-table transition: from any state, tear
// everything down and land in Idle. The next Ready event rebuilds from
// scratch. A loss with no session and nothing to tear down is stale
// and ignored.
func (m *Machine) forceLoss(ev xr.Event, cause error) (Transition, bool, error) {
	if m.sess == nil && m.state == xr.StateIdle {
		xr.Logger().Debug("stale session loss ignored")
		return Transition{}, false, nil
	}
	m.teardownSession()

	err := error(&xr.RuntimeError{Op: "session", Code: xr.ResultSessionLost})
	if cause != nil {
		err = fmt.Errorf("%w: %w", xr.ErrSessionLost, cause)
	}
	xr.Logger().Warn("session lost", "state", m.state, "error", err)

	if m.state == xr.StateIdle {
		return Transition{}, false, err
	}
	tr := Transition{From: m.state, To: xr.StateIdle, Event: ev}
	m.state = xr.StateIdle
	return tr, true, err
}

// recreateChains rebuilds the per-eye swapchains after the runtime
// announces new view dimensions. Rebuild failure is session-fatal: the
// old chains are already gone and the session cannot submit frames
// sized for a configuration the runtime no longer accepts.
func (m *Machine) recreateChains() error {
	if m.sess == nil || m.chains == nil {
		return nil
	}
	m.chains.Destroy()
	m.chains = nil
	chains, err := swapchain.Create(m.sess, m.runtime.ViewConfig(), m.runtime.SwapchainFormats(), m.cfg.ImageWaitTimeout)
	if err != nil {
		return fmt.Errorf("session: recreate swapchains: %w", err)
	}
	m.chains = chains
	xr.Logger().Info("swapchains recreated", "reason", "view configuration changed")
	return nil
}

// teardownSession destroys the swapchains, spaces and session in
// dependency order. Destroy errors are logged, not returned: teardown
// runs on paths that already have a primary error to report.
func (m *Machine) teardownSession() {
	if m.chains != nil {
		m.chains.Destroy()
		m.chains = nil
	}
	for kind, sp := range m.spaces {
		if err := sp.Destroy(); err != nil {
			xr.Logger().Warn("destroy reference space", "kind", kind, "error", err)
		}
		delete(m.spaces, kind)
	}
	if m.sess != nil {
		if err := m.sess.Destroy(); err != nil {
			xr.Logger().Warn("destroy session", "error", err)
		}
		m.sess = nil
	}
}
