package tokenrefresh

import "errors"

var (
	// ErrSessionTerminated is returned for requests that cannot be recovered:
	// a 401 without the expired code, or a refresh that failed.
	ErrSessionTerminated      = errors.New("tokenrefresh.session_terminated")
	ErrNoRefreshToken         = errors.New("tokenrefresh.no_refresh_token")
	ErrInvalidRefreshResponse = errors.New("tokenrefresh.invalid_refresh_response")
)
