package cache

import "errors"

// Error kinds surfaced by Lookup and its typed variant. Callers match them
// with errors.Is; the wrapped message carries the offending handle and,
// for type mismatches, both type names.
var (
	// ErrMalformedHandle reports a handle string with no separator or a
	// non-numeric/negative id suffix.
	ErrMalformedHandle = errors.New("malformed handle")

	// ErrNotFound reports a well-formed handle whose id has no live entry,
	// either because it was reclaimed or because it never existed.
	ErrNotFound = errors.New("handle not found")

	// ErrTypeMismatch reports a typed lookup that resolved an object of the
	// wrong type.
	ErrTypeMismatch = errors.New("handle type mismatch")
)
