// Package statemachine implements a small, thread-safe finite state machine
// over string-like state and event types.
//
// Transitions are registered per (from, event) pair and may carry guards,
// which decide whether the transition applies, and actions, which run before
// the state changes and can abort it by returning an error.
//
// # Usage
//
//	type State string
//	type Event string
//
//	const (
//	    Normal     State = "normal"
//	    Refreshing State = "refreshing"
//	    Started    Event = "refresh_started"
//	    Settled    Event = "refresh_settled"
//	)
//
//	m := statemachine.MustNew(Normal,
//	    statemachine.WithTransition[State, Event](Normal, Refreshing, Started),
//	    statemachine.WithTransition[State, Event](Refreshing, Normal, Settled),
//	)
//
//	if err := m.Fire(ctx, Started, nil); err != nil {
//	    // statemachine.IsNoTransitionAvailableError(err) when already refreshing
//	}
//
// # Error Handling
//
// Fire returns *ErrNoTransitionAvailable when nothing is registered for the
// current state and event, *ErrTransitionRejected when guards block every
// candidate, and wraps action errors with "action failed".
package statemachine
