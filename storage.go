package sparkify

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// StorageMux is a Storage which dispatches on the scheme of the base
// location. Locations without a scheme are looked up under "".
type StorageMux map[string]Storage

// RawSource implements Storage.
func (m StorageMux) RawSource(ctx context.Context, base, pattern string) (RawSource, error) {
	scheme := Scheme(base)
	s, ok := m[scheme]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownScheme, "reading %s", base)
	}
	return s.RawSource(ctx, base, pattern)
}

// SinkMux is a Sink which dispatches on the scheme of the base location.
// Locations without a scheme are looked up under "".
type SinkMux map[string]Sink

// WriteTable implements Sink.
func (m SinkMux) WriteTable(ctx context.Context, base string, t *Table) error {
	scheme := Scheme(base)
	s, ok := m[scheme]
	if !ok {
		return errors.Wrapf(ErrUnknownScheme, "writing %s", base)
	}
	return s.WriteTable(ctx, base, t)
}

// Scheme returns the lower cased scheme of a location such as
// "s3://bucket/prefix", or "" for a plain path.
func Scheme(loc string) string {
	i := strings.Index(loc, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(loc[:i])
}

// SplitLocation splits a location into its scheme, its host (the bucket, for
// object stores) and its path with leading and trailing slashes removed.
func SplitLocation(loc string) (scheme, host, p string) {
	scheme = Scheme(loc)
	if scheme == "" {
		return "", "", loc
	}
	rest := loc[len(scheme)+3:]
	if i := strings.Index(rest, "/"); i >= 0 {
		host, p = rest[:i], rest[i+1:]
	} else {
		host = rest
	}
	return scheme, host, strings.Trim(p, "/")
}
