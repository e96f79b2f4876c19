// Package file reads input objects from the local file system.
package file

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/pilosa/sparkify"
	"github.com/pkg/errors"
)

// Storage is a sparkify.Storage over the local file system. Base locations
// are directory paths, optionally prefixed with "file://".
type Storage struct{}

var _ sparkify.Storage = Storage{}

// RawSource implements sparkify.Storage. It returns sparkify.ErrNoInput if
// nothing under base matches pattern.
func (Storage) RawSource(ctx context.Context, base, pattern string) (sparkify.RawSource, error) {
	dir := Path(base)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, "statting input")
	}
	if !info.IsDir() {
		return nil, errors.Errorf("input %s is not a directory", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, filepath.FromSlash(pattern)))
	if err != nil {
		return nil, errors.Wrapf(err, "matching %s", pattern)
	}
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, errors.Wrap(err, "statting match")
		}
		if info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(sparkify.ErrNoInput, "%s under %s", pattern, dir)
	}
	sort.Strings(files)
	return NewRawSource(dir, files...), nil
}

// Path returns the file system path of a local location.
func Path(loc string) string {
	if sparkify.Scheme(loc) == "file" {
		return filepath.FromSlash(loc[len("file://"):])
	}
	return loc
}

// RawSource hands out the given files in order. It is safe for concurrent
// use.
type RawSource struct {
	dir     string
	files   []string
	fileIdx *uint64
}

// NewRawSource gets a RawSource over files. Object names are the file paths
// relative to dir.
func NewRawSource(dir string, files ...string) *RawSource {
	fileIdx := uint64(0)
	return &RawSource{
		dir:     dir,
		files:   files,
		fileIdx: &fileIdx,
	}
}

type namedFile struct {
	*os.File
	name string
}

func (n *namedFile) Name() string { return n.name }

// NextReader implements sparkify.RawSource.
func (s *RawSource) NextReader() (sparkify.NamedReadCloser, error) {
	idx := atomic.AddUint64(s.fileIdx, 1) - 1
	if idx >= uint64(len(s.files)) {
		return nil, io.EOF
	}
	name := s.files[idx]
	file, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", name)
	}
	if rel, err := filepath.Rel(s.dir, name); err == nil && !strings.HasPrefix(rel, "..") {
		name = filepath.ToSlash(rel)
	}
	return &namedFile{File: file, name: name}, nil
}
