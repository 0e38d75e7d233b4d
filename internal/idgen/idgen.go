package idgen

import "github.com/google/uuid"

// NewFunc returns a new globally unique identifier as string. It is a
// variable so tests can stub it.
var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }

// Suffixed returns prefix joined with a fresh identifier, e.g. a
// migration lock owner derived from the engine id.
func Suffixed(prefix string) string {
	if prefix == "" {
		return New()
	}
	return prefix + "-" + New()
}
