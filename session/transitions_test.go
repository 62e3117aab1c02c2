package session

import (
	"math/rand"
	"testing"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/backend/sim"
)

func TestTransitionTableShape(t *testing.T) {
	for key := range stateRules {
		if key.from == key.to {
			t.Errorf("table contains self-loop %v", key.from)
		}
		if key.from == xr.StateExiting {
			t.Errorf("table allows leaving exiting via %v -> %v", key.from, key.to)
		}
		if key.to == xr.StateIdle && key.from != xr.StateStopping {
			t.Errorf("table reaches idle from %v; only stopping may return there", key.from)
		}
	}
	// Every state except exiting has at least one way out.
	outs := map[xr.SessionState]int{}
	for key := range stateRules {
		outs[key.from]++
	}
	for s := xr.StateIdle; s < xr.StateExiting; s++ {
		if outs[s] == 0 {
			t.Errorf("state %v has no outgoing transitions", s)
		}
	}
}

// TestLifecycleNeverSkipsStates feeds a long randomized event stream and
// checks the machine only ever moves along table edges, whatever order
// the events land in.
func TestLifecycleNeverSkipsStates(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rt := sim.NewRuntime()
	m := newMachine(rt)

	events := []func() xr.Event{
		func() xr.Event { return xr.StateEvent(xr.SessionState(rng.Intn(int(xr.StateExiting)))) },
		func() xr.Event { return xr.Event{Kind: xr.EventFocusChanged, Focused: rng.Intn(2) == 0} },
		func() xr.Event { return xr.Event{Kind: xr.EventSurfaceCreated} },
	}

	for range 500 {
		before := m.State()
		rt.PushEvent(events[rng.Intn(len(events))]())

		trs, err := m.PollEvents()
		if err != nil {
			t.Fatalf("state %v: PollEvents: %v", before, err)
		}
		prev := before
		for _, tr := range trs {
			if tr.From != prev {
				t.Fatalf("transition chain broken: from %v after %v", tr.From, prev)
			}
			if _, ok := stateRules[stateKey{tr.From, tr.To}]; !ok {
				t.Fatalf("machine applied %v -> %v, not a table edge", tr.From, tr.To)
			}
			prev = tr.To
		}
		if prev != m.State() {
			t.Fatalf("reported transitions end at %v but state is %v", prev, m.State())
		}
	}
}

// TestLifecycleLossInterleaved mixes session loss into the random
// stream. Loss may jump to idle from anywhere; every other applied
// change must still be a table edge.
func TestLifecycleLossInterleaved(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	rt := sim.NewRuntime()
	m := newMachine(rt)

	for range 300 {
		if rng.Intn(10) == 0 {
			rt.LoseSession()
		} else {
			rt.PushEvent(xr.StateEvent(xr.SessionState(rng.Intn(int(xr.StateExiting)))))
		}

		trs, _ := m.PollEvents() // loss errors are expected here
		for _, tr := range trs {
			if tr.To == xr.StateIdle && tr.Event.Kind == xr.EventSessionLost {
				continue
			}
			if _, ok := stateRules[stateKey{tr.From, tr.To}]; !ok {
				t.Fatalf("machine applied %v -> %v via %v, not a table edge",
					tr.From, tr.To, tr.Event.Kind)
			}
		}
		if m.State() == xr.StateExiting {
			break
		}
	}
}
