package sparkify_test

import (
	"context"
	"testing"

	"github.com/pilosa/sparkify"
	"github.com/pilosa/sparkify/test"
	"github.com/pkg/errors"
)

func TestScheme(t *testing.T) {
	tests := []struct {
		loc, scheme, host, path string
	}{
		{loc: "data", scheme: "", host: "", path: "data"},
		{loc: "/abs/data/", scheme: "", host: "", path: "/abs/data/"},
		{loc: "file:///tmp/data", scheme: "file", host: "", path: "tmp/data"},
		{loc: "S3://bucket/a/b/", scheme: "s3", host: "bucket", path: "a/b"},
		{loc: "s3a://bucket", scheme: "s3a", host: "bucket", path: ""},
		{loc: "://nothing", scheme: "", host: "", path: "://nothing"},
	}
	for _, tst := range tests {
		test.MustBe(t, tst.scheme, sparkify.Scheme(tst.loc), tst.loc)
		scheme, host, p := sparkify.SplitLocation(tst.loc)
		test.MustBe(t, []string{tst.scheme, tst.host, tst.path}, []string{scheme, host, p}, tst.loc)
	}
}

type recordingStorage struct{ bases []string }

func (r *recordingStorage) RawSource(ctx context.Context, base, pattern string) (sparkify.RawSource, error) {
	r.bases = append(r.bases, base)
	return nil, sparkify.ErrNoInput
}

type recordingSink struct{ tables []string }

func (r *recordingSink) WriteTable(ctx context.Context, base string, t *sparkify.Table) error {
	r.tables = append(r.tables, base+" "+t.Name)
	return nil
}

func TestMux(t *testing.T) {
	local, remote := &recordingStorage{}, &recordingStorage{}
	mux := sparkify.StorageMux{"": local, "s3": remote}
	for _, base := range []string{"data", "s3://bucket/data", "S3://bucket/other"} {
		_, err := mux.RawSource(context.Background(), base, "*.json")
		if errors.Cause(err) != sparkify.ErrNoInput {
			t.Fatalf("expected ErrNoInput, got %v", err)
		}
	}
	test.MustBe(t, []string{"data"}, local.bases)
	test.MustBe(t, []string{"s3://bucket/data", "S3://bucket/other"}, remote.bases)
	if _, err := mux.RawSource(context.Background(), "gs://bucket", "*"); errors.Cause(err) != sparkify.ErrUnknownScheme {
		t.Fatalf("expected ErrUnknownScheme, got %v", err)
	}

	sink := &recordingSink{}
	smux := sparkify.SinkMux{"file": sink}
	test.ErrNil(t, smux.WriteTable(context.Background(), "file:///out", sparkify.UserTable(nil)), "writing")
	test.MustBe(t, []string{"file:///out user_table"}, sink.tables)
	if err := smux.WriteTable(context.Background(), "out", sparkify.UserTable(nil)); errors.Cause(err) != sparkify.ErrUnknownScheme {
		t.Fatalf("expected ErrUnknownScheme, got %v", err)
	}
}
