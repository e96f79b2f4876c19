package test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// MustBe uses reflect.DeepEqual to assert that thing1 and thing2 are equal, and
// fails otherwise.
func MustBe(t *testing.T, thing1, thing2 interface{}, context ...string) {
	t.Helper()
	var ctx string
	if len(context) == 0 {
		ctx = ""
	} else {
		ctx = context[0] + ": "
	}
	if !reflect.DeepEqual(thing1, thing2) {
		t.Fatalf("%v'%#v' != '%#v'", ctx, thing1, thing2)
	}
}

// ErrNil asserts that the err is nil and fails otherwise.
func ErrNil(t *testing.T, err error, ctx string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%v: %v", ctx, err)
	}
}

// MustTempDir creates a temporary directory which is removed when the test
// finishes.
func MustTempDir(t *testing.T, prefix string) string {
	t.Helper()
	d, err := ioutil.TempDir("", prefix)
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(d) })
	return d
}

// MustWriteFiles writes each file in files, keyed by its slash separated path
// relative to dir, creating directories as needed.
func MustWriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, contents := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("making directory for %s: %v", name, err)
		}
		if err := ioutil.WriteFile(p, []byte(contents), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

// MustReadFiles returns the contents of every regular file under dir, keyed by
// slash separated path relative to dir.
func MustReadFiles(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	files := make(map[string][]byte)
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		data, err := ioutil.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		t.Fatalf("reading files under %s: %v", dir, err)
	}
	return files
}
