package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidBaseURL = errors.New("apiclient.invalid_base_url")
	ErrNilRequest     = errors.New("apiclient.nil_request")
	ErrTransport      = errors.New("apiclient.transport")
	ErrEncodeBody     = errors.New("apiclient.encode_body")
	ErrDecodeBody     = errors.New("apiclient.decode_body")
)

// APIError is a non-2xx answer from the remote API. Code carries the
// machine-readable error code when the body provides one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// API error.
func StatusOf(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 API error.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}
