package sparkify_test

import (
	"io"
	"strings"
	"testing"

	"github.com/pilosa/sparkify"
	"github.com/pilosa/sparkify/test"
)

func TestJSONSource(t *testing.T) {
	src := sparkify.NewJSONSource(strings.NewReader("{\"a\": 1}\n{\"a\": 2}{\"a\": 3}\n\n"))
	n := 0
	for {
		rec, err := src.Record()
		if err == io.EOF {
			break
		}
		test.ErrNil(t, err, "reading")
		n++
		if _, ok := rec.(map[string]interface{}); !ok {
			t.Fatalf("expected object, got %T", rec)
		}
	}
	test.MustBe(t, 3, n)

	_, err := sparkify.NewJSONSource(strings.NewReader(`{"a": `)).Record()
	if err == nil || err == io.EOF {
		t.Fatalf("expected decode error, got %v", err)
	}
}
