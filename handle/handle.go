// Package handle implements the opaque handle token format and the
// process-wide id mint backing the object cache.
//
// A handle is a string of the form "TypeName@id". The type name is
// informational only; resolution goes through the numeric id.
package handle

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
)

// Separator divides the type name from the numeric id in a handle string.
const Separator = "@"

// Encode builds the handle token for a type name and id.
func Encode(typeName string, id uint64) string {
	return typeName + Separator + strconv.FormatUint(id, 10)
}

// Decode extracts the numeric id from a handle token. The id follows the
// last separator, so type names containing '@' still parse. Returns an
// error for a missing separator or a non-numeric/negative suffix; callers
// wrap it into their malformed-handle error kind.
func Decode(s string) (uint64, error) {
	i := strings.LastIndex(s, Separator)
	if i < 0 {
		return 0, fmt.Errorf("no %q separator in %q", Separator, s)
	}
	id, err := strconv.ParseUint(s[i+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad id suffix in %q: %w", s, err)
	}
	return id, nil
}

// TypeName returns the runtime type name used in encoded handles.
func TypeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// Allocator mints process-wide unique ids. The zero value is ready to use.
// Ids start at 1 (0 could be confused with nil/uninitialized).
type Allocator struct {
	next atomic.Uint64
}

// Next returns a fresh id. Lock-free, safe for concurrent use.
func (a *Allocator) Next() uint64 {
	return a.next.Add(1)
}
