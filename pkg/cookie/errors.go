package cookie

import "errors"

var (
	ErrCookieNotFound = errors.New("cookie.not_found")
	ErrInvalidOrigin  = errors.New("cookie.invalid_origin")
	ErrEmptyName      = errors.New("cookie.empty_name")
)
