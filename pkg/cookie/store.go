package cookie

// Store is a string key/value credential store with cookie semantics:
// values carry a path and an optional max age, and expired values read as
// missing. Implementations must be safe for concurrent use, since every tab
// of one origin shares the same store.
type Store interface {
	// Get returns the value stored under name or ErrCookieNotFound.
	Get(name string) (string, error)

	// Set stores value under name. A negative max age deletes the value,
	// zero keeps it for the lifetime of the store.
	Set(name, value string, opts ...Option) error

	// Delete removes name. Deleting a missing value is not an error.
	Delete(name string) error
}

// Lookup returns the value stored under name, or "" when it is missing or
// the store fails.
func Lookup(s Store, name string) string {
	v, err := s.Get(name)
	if err != nil {
		return ""
	}
	return v
}
