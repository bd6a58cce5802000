package tokenrefresh

import (
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/apiclient"
	"github.com/dmitrymomot/sessionkit/pkg/statemachine"
)

// State is a coordinator state or the classification of a failed request.
type State string

const (
	StateNormal      State = "normal"
	StateRecoverable State = "unauthorized_recoverable"
	StateTerminal    State = "unauthorized_terminal"
	StateRefreshing  State = "refreshing"
)

// Event drives the coordinator state machine.
type Event string

const (
	EventRefreshStarted   Event = "refresh_started"
	EventRefreshSucceeded Event = "refresh_succeeded"
	EventRefreshFailed    Event = "refresh_failed"
)

// Classify maps a request error to the state it puts the request in.
// Anything that is not a 401 API error stays Normal and is passed through.
func Classify(err error, expiredCode string) State {
	apiErr, ok := apiclient.AsAPIError(err)
	if !ok || apiErr.StatusCode != http.StatusUnauthorized {
		return StateNormal
	}
	if apiErr.Code == expiredCode {
		return StateRecoverable
	}
	return StateTerminal
}

func newMachine() *statemachine.Machine[State, Event] {
	return statemachine.MustNew(StateNormal,
		statemachine.WithTransition[State, Event](StateNormal, StateRefreshing, EventRefreshStarted),
		statemachine.WithTransition[State, Event](StateRefreshing, StateNormal, EventRefreshSucceeded),
		statemachine.WithTransition[State, Event](StateRefreshing, StateNormal, EventRefreshFailed),
	)
}
