package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Request describes one call to the remote API. Body is encoded as JSON when
// non-nil. Header values override the client's defaults.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header

	// SkipIntercept keeps the response away from the installed interceptor.
	// Sign-in and token refresh calls set it.
	SkipIntercept bool

	sentWith string
}

// SentWith returns the bearer token the request was last sent with.
func (r *Request) SentWith() string {
	return r.sentWith
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return fmt.Errorf("%w: empty body", ErrDecodeBody)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeBody, err)
	}
	return nil
}

// parseAPIError picks the code and message out of an error payload. Both
// {"code","message"} and {"error": "..."} shapes are accepted.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload map[string]any
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		if code, ok := payload["code"].(string); ok {
			apiErr.Code = code
		}
		if msg, ok := payload["message"].(string); ok {
			apiErr.Message = msg
		}
		if msg, ok := payload["error"].(string); ok && apiErr.Message == "" {
			apiErr.Message = msg
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
