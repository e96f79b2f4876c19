package parquet

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pilosa/sparkify"
	"github.com/pilosa/sparkify/file"
	"github.com/pkg/errors"
	"github.com/xitongsys/parquet-go-source/local"
)

// LocalSink is a sparkify.Sink writing to the local file system.
//
// A table is written to a staging directory next to its location. Once every
// file is written, the previous location is moved aside, the staging
// directory is renamed into place and the previous contents are removed. A
// failed write leaves the previous contents untouched.
type LocalSink struct {
	config
}

var _ sparkify.Sink = &LocalSink{}

// NewLocalSink gets a LocalSink with the options applied.
func NewLocalSink(opts ...SinkOption) (*LocalSink, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &LocalSink{config: c}, nil
}

// WriteTable implements sparkify.Sink.
func (s *LocalSink) WriteTable(ctx context.Context, base string, t *sparkify.Table) error {
	root := file.Path(base)
	if err := os.MkdirAll(root, 0755); err != nil {
		return errors.Wrap(err, "making output directory")
	}
	dest := filepath.Join(root, t.Name)
	staging := filepath.Join(root, "."+t.Name+".staging")
	old := filepath.Join(root, "."+t.Name+".old")
	for _, d := range []string{staging, old} {
		if err := os.RemoveAll(d); err != nil {
			return errors.Wrapf(err, "removing leftover %s", d)
		}
	}

	if err := s.stage(ctx, staging, t); err != nil {
		os.RemoveAll(staging)
		return err
	}

	if err := os.Rename(dest, old); err != nil && !os.IsNotExist(err) {
		os.RemoveAll(staging)
		return errors.Wrap(err, "moving previous table aside")
	}
	if err := os.Rename(staging, dest); err != nil {
		if rerr := os.Rename(old, dest); rerr != nil && !os.IsNotExist(rerr) {
			s.log.Printf("restoring previous %s: %v", dest, rerr)
		}
		return errors.Wrap(err, "moving staged table into place")
	}
	if err := os.RemoveAll(old); err != nil {
		return errors.Wrap(err, "removing previous table")
	}
	return nil
}

func (s *LocalSink) stage(ctx context.Context, dir string, t *sparkify.Table) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "making staging directory")
	}
	for _, f := range s.layout(t) {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := filepath.Join(dir, filepath.FromSlash(f.rel))
		if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
			return errors.Wrap(err, "making partition directory")
		}
		fw, err := local.NewLocalFileWriter(name)
		if err != nil {
			return errors.Wrapf(err, "creating %s", name)
		}
		err = s.encode(fw, t.Proto, f.rows)
		if cerr := fw.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "closing %s", name)
		}
		if err != nil {
			return errors.Wrapf(err, "writing %s", name)
		}
		s.log.Debugf("wrote %d rows to %s/%s", len(f.rows), t.Name, f.rel)
	}
	return nil
}
