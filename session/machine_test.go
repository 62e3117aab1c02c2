package session

import (
	"errors"
	"testing"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/backend/sim"
)

// staticBinding is a minimal BindingSource for tests. The simulated
// runtime ignores the binding, so a null one is enough.
type staticBinding struct {
	alive bool
}

func (b *staticBinding) Binding() xr.GraphicsBinding { return xr.NullBinding{} }
func (b *staticBinding) Alive() bool                 { return b.alive }

var _ BindingSource = (*staticBinding)(nil)

func newMachine(rt *sim.Runtime) *Machine {
	return New(rt, &staticBinding{alive: true}, xr.DefaultConfig())
}

// poll drains events and fails the test on unexpected errors.
func poll(t *testing.T, m *Machine) []Transition {
	t.Helper()
	trs, err := m.PollEvents()
	if err != nil {
		t.Fatalf("PollEvents: %v", err)
	}
	return trs
}

func wantStates(t *testing.T, trs []Transition, states ...xr.SessionState) {
	t.Helper()
	if len(trs) != len(states) {
		t.Fatalf("transitions = %d, want %d (%v)", len(trs), len(states), trs)
	}
	for i, want := range states {
		if trs[i].To != want {
			t.Errorf("transition %d: to = %v, want %v", i, trs[i].To, want)
		}
	}
}

func TestMachineStartsIdle(t *testing.T) {
	m := newMachine(sim.NewRuntime())
	if got := m.State(); got != xr.StateIdle {
		t.Errorf("State() = %v, want idle", got)
	}
	if m.ShouldRunFrameLoop() {
		t.Error("ShouldRunFrameLoop() = true before any event")
	}
	if m.Session() != nil {
		t.Error("Session() != nil before ready")
	}
}

func TestReadyBuildsSession(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(xr.StateReady)))
	m := newMachine(rt)

	trs := poll(t, m)
	wantStates(t, trs, xr.StateReady)

	if rt.Sessions() != 1 {
		t.Fatalf("Sessions() = %d, want 1", rt.Sessions())
	}
	sess := rt.ActiveSession()
	if got := sess.CountCalls("begin_session"); got != 1 {
		t.Errorf("begin_session calls = %d, want 1", got)
	}
	if got := sess.CountCalls("create_swapchain"); got != 2 {
		t.Errorf("create_swapchain calls = %d, want 2 (one per eye)", got)
	}
	if m.Space() == nil {
		t.Error("Space() = nil after ready")
	}
	if m.Chains() == nil {
		t.Error("Chains() = nil after ready")
	}
	// Ready precedes synchronization; frames are not yet due.
	if m.ShouldRunFrameLoop() {
		t.Error("ShouldRunFrameLoop() = true in ready state")
	}
}

func TestForwardLifecycle(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(
		xr.StateReady, xr.StateSynchronized, xr.StateVisible, xr.StateFocused,
	)))
	m := newMachine(rt)

	trs := poll(t, m)
	wantStates(t, trs, xr.StateReady, xr.StateSynchronized, xr.StateVisible, xr.StateFocused)

	if got := m.State(); got != xr.StateFocused {
		t.Errorf("State() = %v, want focused", got)
	}
	if !m.ShouldRunFrameLoop() {
		t.Error("ShouldRunFrameLoop() = false in focused state")
	}
	for i, tr := range trs {
		if tr.From == tr.To {
			t.Errorf("transition %d is a self-loop: %+v", i, tr)
		}
	}
}

func TestOutOfOrderStateChangeIgnored(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(xr.StateVisible, xr.StateFocused)))
	m := newMachine(rt)

	trs := poll(t, m)
	if len(trs) != 0 {
		t.Fatalf("transitions = %v, want none for an out-of-order stream", trs)
	}
	if got := m.State(); got != xr.StateIdle {
		t.Errorf("State() = %v, want idle", got)
	}
	if rt.Sessions() != 0 {
		t.Errorf("Sessions() = %d, want 0 (no session without ready)", rt.Sessions())
	}
}

func TestRepeatedStateIgnored(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(
		xr.StateReady, xr.StateReady, xr.StateSynchronized, xr.StateSynchronized,
	)))
	m := newMachine(rt)

	trs := poll(t, m)
	wantStates(t, trs, xr.StateReady, xr.StateSynchronized)
	if rt.Sessions() != 1 {
		t.Errorf("Sessions() = %d, want 1", rt.Sessions())
	}
}

func TestNoSurfaceBlocksReady(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(xr.StateReady)))
	binding := &staticBinding{alive: false}
	m := New(rt, binding, xr.DefaultConfig())

	trs, err := m.PollEvents()
	if !errors.Is(err, xr.ErrNoSurface) {
		t.Fatalf("PollEvents error = %v, want ErrNoSurface", err)
	}
	if len(trs) != 0 {
		t.Fatalf("transitions = %v, want none", trs)
	}
	if m.State() != xr.StateIdle {
		t.Errorf("State() = %v, want idle after failed ready", m.State())
	}
	if rt.Sessions() != 0 {
		t.Errorf("Sessions() = %d, want 0", rt.Sessions())
	}

	// The surface appearing and ready being re-delivered recovers.
	rt.PushEvent(xr.Event{Kind: xr.EventSurfaceCreated})
	rt.PushEvent(xr.StateEvent(xr.StateReady))
	trs = poll(t, m)
	wantStates(t, trs, xr.StateReady)
	if rt.Sessions() != 1 {
		t.Errorf("Sessions() = %d after recovery, want 1", rt.Sessions())
	}
}

func TestStoppingEndsSessionAndKeepsHandle(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(
		xr.StateReady, xr.StateSynchronized, xr.StateStopping, xr.StateIdle,
	)))
	m := newMachine(rt)

	trs := poll(t, m)
	wantStates(t, trs, xr.StateReady, xr.StateSynchronized, xr.StateStopping, xr.StateIdle)

	sess := rt.ActiveSession()
	if got := sess.CountCalls("end_session"); got != 1 {
		t.Errorf("end_session calls = %d, want 1", got)
	}
	if sess.CountCalls("destroy_session") != 0 {
		t.Error("session destroyed on stop; handle should be retained")
	}
	if m.Chains() != nil {
		t.Error("Chains() != nil after stopping")
	}
	if m.Session() == nil {
		t.Error("Session() = nil after stopping; handle should be retained for restart")
	}

	// A later ready begins the same session again without recreating it.
	rt.PushEvent(xr.StateEvent(xr.StateReady))
	trs = poll(t, m)
	wantStates(t, trs, xr.StateReady)
	if rt.Sessions() != 1 {
		t.Errorf("Sessions() = %d after restart, want 1 (reused)", rt.Sessions())
	}
	if got := sess.CountCalls("begin_session"); got != 2 {
		t.Errorf("begin_session calls = %d, want 2", got)
	}
	if m.Chains() == nil {
		t.Error("Chains() = nil after restart")
	}
}

func TestSessionLossForcesIdle(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(
		xr.StateReady, xr.StateSynchronized, xr.StateVisible, xr.StateFocused,
	)))
	m := newMachine(rt)
	poll(t, m)

	rt.LoseSession()
	trs, err := m.PollEvents()
	if !errors.Is(err, xr.ErrSessionLost) {
		t.Fatalf("PollEvents error = %v, want ErrSessionLost", err)
	}
	wantStates(t, trs, xr.StateIdle)
	if trs[0].From != xr.StateFocused {
		t.Errorf("loss transition from = %v, want focused", trs[0].From)
	}
	if m.Session() != nil || m.Chains() != nil || m.Space() != nil {
		t.Error("session resources survive loss")
	}
	if m.ShouldRunFrameLoop() {
		t.Error("ShouldRunFrameLoop() = true after loss")
	}
}

func TestRebuildAfterLoss(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(xr.StateReady, xr.StateSynchronized)))
	m := newMachine(rt)
	poll(t, m)

	rt.LoseSession()
	if _, err := m.PollEvents(); !errors.Is(err, xr.ErrSessionLost) {
		t.Fatalf("loss not reported")
	}

	rt.PushEvent(xr.StateEvent(xr.StateReady))
	trs := poll(t, m)
	wantStates(t, trs, xr.StateReady)
	if rt.Sessions() != 2 {
		t.Errorf("Sessions() = %d, want 2 (fresh session after loss)", rt.Sessions())
	}
	if m.Session() == nil || m.Chains() == nil {
		t.Error("rebuild incomplete after loss")
	}
}

func TestStaleLossIgnoredWhenIdle(t *testing.T) {
	rt := sim.NewRuntime()
	m := newMachine(rt)

	rt.PushEvent(xr.Event{Kind: xr.EventSessionLost})
	trs, err := m.PollEvents()
	if err != nil {
		t.Fatalf("PollEvents: %v", err)
	}
	if len(trs) != 0 {
		t.Errorf("transitions = %v, want none for stale loss", trs)
	}
}

func TestSurfaceDestroyedUnderSessionIsLoss(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(xr.StateReady, xr.StateSynchronized, xr.StateVisible)))
	m := newMachine(rt)
	poll(t, m)

	rt.PushEvent(xr.Event{Kind: xr.EventSurfaceDestroyed})
	trs, err := m.PollEvents()
	if !errors.Is(err, xr.ErrSessionLost) {
		t.Fatalf("PollEvents error = %v, want ErrSessionLost", err)
	}
	if !errors.Is(err, xr.ErrNoSurface) {
		t.Errorf("PollEvents error = %v, should also carry ErrNoSurface", err)
	}
	wantStates(t, trs, xr.StateIdle)

	// Without a surface, the next ready cannot rebuild.
	rt.PushEvent(xr.StateEvent(xr.StateReady))
	if _, err := m.PollEvents(); !errors.Is(err, xr.ErrNoSurface) {
		t.Errorf("ready without surface = %v, want ErrNoSurface", err)
	}
}

func TestFocusEventsMapToStates(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(xr.StateReady, xr.StateSynchronized, xr.StateVisible)))
	m := newMachine(rt)
	poll(t, m)

	rt.PushEvent(xr.Event{Kind: xr.EventFocusChanged, Focused: true})
	trs := poll(t, m)
	wantStates(t, trs, xr.StateFocused)

	rt.PushEvent(xr.Event{Kind: xr.EventFocusChanged, Focused: false})
	trs = poll(t, m)
	wantStates(t, trs, xr.StateVisible)

	// Focus gain is meaningless below visible; it must not jump states.
	rt.PushEvent(xr.StateEvent(xr.StateSynchronized))
	poll(t, m)
	rt.PushEvent(xr.Event{Kind: xr.EventFocusChanged, Focused: true})
	trs = poll(t, m)
	if len(trs) != 0 {
		t.Errorf("focus gain from synchronized applied %v, want ignored", trs)
	}
}

func TestViewConfigChangeRecreatesChains(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(xr.StateReady, xr.StateSynchronized)))
	m := newMachine(rt)
	poll(t, m)

	old := m.Chains()
	if old == nil {
		t.Fatal("no chains after ready")
	}
	view := xr.ViewSpec{
		Recommended: xr.Extent{Width: 1536, Height: 1536},
		Max:         xr.Extent{Width: 2048, Height: 2048},
		SampleCount: 1,
	}
	rt.SetViewConfig(xr.ViewConfig{Views: []xr.ViewSpec{view, view}})

	trs := poll(t, m)
	if len(trs) != 0 {
		t.Errorf("view config change produced transitions %v, want none", trs)
	}
	if m.Chains() == old {
		t.Error("chains not recreated after view config change")
	}
	if got := m.Chains().Rect(0).Width; got != 1536 {
		t.Errorf("new chain width = %d, want 1536", got)
	}
	if got := rt.ActiveSession().CountCalls("create_swapchain"); got != 4 {
		t.Errorf("create_swapchain calls = %d, want 4 (two rounds)", got)
	}
}

func TestInjectedEventsApplyFirst(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(xr.StateSynchronized)))
	m := newMachine(rt)

	// Injected ready lands before the queued synchronized, so both apply.
	m.Inject(xr.StateEvent(xr.StateReady))
	trs := poll(t, m)
	wantStates(t, trs, xr.StateReady, xr.StateSynchronized)
}

func TestExitingDestroysEverything(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(
		xr.StateReady, xr.StateSynchronized, xr.StateStopping, xr.StateExiting,
	)))
	m := newMachine(rt)

	trs := poll(t, m)
	wantStates(t, trs, xr.StateReady, xr.StateSynchronized, xr.StateStopping, xr.StateExiting)

	if m.State() != xr.StateExiting {
		t.Errorf("State() = %v, want exiting", m.State())
	}
	if m.Session() != nil {
		t.Error("Session() != nil after exiting")
	}
	if got := rt.ActiveSession().CountCalls("destroy_session"); got != 1 {
		t.Errorf("destroy_session calls = %d, want 1", got)
	}
}

func TestForceLoss(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(xr.StateReady, xr.StateSynchronized, xr.StateVisible)))
	m := newMachine(rt)
	poll(t, m)

	cause := &xr.RuntimeError{Op: "wait_frame", Code: xr.ResultSessionLost}
	err := m.ForceLoss(cause)
	if !errors.Is(err, xr.ErrSessionLost) {
		t.Fatalf("ForceLoss = %v, want ErrSessionLost", err)
	}
	if m.State() != xr.StateIdle {
		t.Errorf("State() = %v, want idle", m.State())
	}
	if m.Session() != nil {
		t.Error("Session() != nil after forced loss")
	}
}

func TestDestroyResetsToIdle(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(xr.StateReady, xr.StateSynchronized)))
	m := newMachine(rt)
	poll(t, m)

	m.Destroy()
	if m.State() != xr.StateIdle {
		t.Errorf("State() = %v, want idle", m.State())
	}
	if m.Session() != nil || m.Chains() != nil {
		t.Error("resources survive Destroy")
	}

	// The machine is reusable after Destroy.
	rt.PushEvent(xr.StateEvent(xr.StateReady))
	trs := poll(t, m)
	wantStates(t, trs, xr.StateReady)
}

func TestFrameCounterSurvivesRebuild(t *testing.T) {
	rt := sim.NewRuntime(sim.Script(sim.StateSequence(xr.StateReady)))
	m := newMachine(rt)
	poll(t, m)

	m.NoteFrame()
	m.NoteFrame()
	rt.LoseSession()
	if _, err := m.PollEvents(); !errors.Is(err, xr.ErrSessionLost) {
		t.Fatal("loss not reported")
	}
	m.NoteFrame()
	if got := m.Frames(); got != 3 {
		t.Errorf("Frames() = %d, want 3", got)
	}
}
