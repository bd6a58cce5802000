package session

import "errors"

var (
	// ErrInvalidCredentials indicates the API rejected the email or password
	ErrInvalidCredentials = errors.New("session.invalid_credentials")

	// ErrNetwork indicates the API could not be reached
	ErrNetwork = errors.New("session.network")

	// ErrSignInFailed indicates any other sign-in failure
	ErrSignInFailed = errors.New("session.sign_in_failed")

	// ErrAlreadyStarted indicates Start was called twice
	ErrAlreadyStarted = errors.New("session.already_started")
)
