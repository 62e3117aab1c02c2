package session

import "github.com/gogpu/xr"

// stateKey is one cell of the lifecycle transition table.
type stateKey struct {
	from, to xr.SessionState
}

// stateRule is the table entry: the side effect run on entering the
// target state. A nil effect means the transition is pure bookkeeping.
// The effect runs before the state changes; if it fails, the machine
// stays in the old state and the error surfaces from PollEvents.
type stateRule struct {
	effect func(*Machine, xr.Event) error
}

// stateRules is the explicit session lifecycle graph. Only the pairs
// listed here are legal state changes; any other pair delivered by the
// event stream is ignored with a diagnostic rather than applied.
//
// The forward path is Idle → Ready → Synchronized → Visible → Focused;
// teardown retraces through Synchronized into Stopping and ends in Idle
// or Exiting. Session loss bypasses the table entirely (see forceLoss):
// it is the one transition every state must accept.
var stateRules = map[stateKey]stateRule{
	{xr.StateIdle, xr.StateReady}:   {effect: (*Machine).enterReady},
	{xr.StateIdle, xr.StateExiting}: {effect: (*Machine).enterExiting},

	{xr.StateReady, xr.StateSynchronized}: {},
	{xr.StateReady, xr.StateStopping}:     {effect: (*Machine).enterStopping},

	{xr.StateSynchronized, xr.StateVisible}:  {},
	{xr.StateSynchronized, xr.StateStopping}: {effect: (*Machine).enterStopping},

	{xr.StateVisible, xr.StateFocused}:      {},
	{xr.StateVisible, xr.StateSynchronized}: {},

	{xr.StateFocused, xr.StateVisible}: {},

	{xr.StateStopping, xr.StateIdle}:    {},
	{xr.StateStopping, xr.StateExiting}: {effect: (*Machine).enterExiting},
}
