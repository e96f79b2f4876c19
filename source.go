package sparkify

import (
	"context"
	"io"
)

// NamedReadCloser is an io.ReadCloser which also knows the name of the object
// it is reading.
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
}

// RawSource hands out readers for a set of objects, one object at a time.
// NextReader returns io.EOF once every object has been handed out.
// Implementations of RawSource must be safe to call from multiple goroutines,
// and each object must be returned exactly once.
type RawSource interface {
	NextReader() (NamedReadCloser, error)
}

// Storage resolves a base location and a glob pattern relative to it into a
// RawSource over the matching objects. The pattern uses path.Match syntax
// applied to each path element, so "*" never crosses a "/".
type Storage interface {
	RawSource(ctx context.Context, base, pattern string) (RawSource, error)
}

// Source is the interface for getting decoded records one at a time. Record
// returns io.EOF when the source is exhausted.
type Source interface {
	Record() (interface{}, error)
}
