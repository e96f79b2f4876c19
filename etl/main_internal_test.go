package etl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pilosa/sparkify/mock"
	"github.com/pilosa/sparkify/test"
)

func genLocal(t *testing.T) string {
	t.Helper()
	dir := test.MustTempDir(t, "sparkify-input")
	gm := NewGenMain()
	gm.Seed = 7
	gm.Output = dir
	test.ErrNil(t, gm.Run(), "generating")
	return dir
}

func TestMainIndexTypesAgree(t *testing.T) {
	input := genLocal(t)
	var outputs []map[string][]byte
	for _, typ := range []string{"mem", "bolt", "leveldb"} {
		out := test.MustTempDir(t, "sparkify-output")
		m := NewMain()
		m.SetStderr(&bytes.Buffer{})
		m.Input, m.Output, m.IndexType = input, out, typ
		test.ErrNil(t, m.Run(), typ)
		outputs = append(outputs, test.MustReadFiles(t, out))
	}
	if _, ok := outputs[0]["song_table/part-00000.parquet"]; !ok {
		t.Fatalf("no song table in %v", keys(outputs[0]))
	}
	for i := 1; i < len(outputs); i++ {
		test.MustBe(t, outputs[0], outputs[i], "output with another index")
	}
}

func TestMainLogFormat(t *testing.T) {
	input := genLocal(t)
	buf := &bytes.Buffer{}
	m := NewMain()
	m.SetStderr(buf)
	m.Input, m.Output = input, test.MustTempDir(t, "sparkify-output")
	m.LogFormat = "json"
	m.Stats = "term"
	m.Stages = []string{"catalog"}
	test.ErrNil(t, m.Run(), "running")
	if !strings.Contains(buf.String(), `"level":"info"`) {
		t.Fatalf("expected json log lines, got:\n%s", buf)
	}
	if !strings.Contains(buf.String(), "records.read.catalog: ") {
		t.Fatalf("expected stats summary, got:\n%s", buf)
	}
}

func TestMainS3(t *testing.T) {
	client := mock.NewS3("in", "out")
	gm := NewGenMain()
	gm.Output = "s3://in/sparkify"
	gm.s3Client = client
	test.ErrNil(t, gm.Run(), "generating")

	m := NewMain()
	m.SetStderr(&bytes.Buffer{})
	m.s3Client = client
	m.Input, m.Output = "s3://in/sparkify", "s3://out/tables"
	m.RowsPerFile = 5
	test.ErrNil(t, m.Run(), "first run")
	first := client.Objects("out")
	test.ErrNil(t, m.Run(), "second run")
	test.MustBe(t, first, client.Objects("out"), "objects after rerun")

	for _, table := range []string{"song_table", "artist_table", "user_table", "time_table", "songplay_table"} {
		found := false
		for k := range first {
			if strings.HasPrefix(k, "tables/"+table+"/") {
				found = true
			}
			if strings.Contains(k, "_staging") {
				t.Fatalf("staging object %s left behind", k)
			}
		}
		if !found {
			t.Fatalf("no objects for %s in %v", table, keys(first))
		}
	}

	out := &bytes.Buffer{}
	im := NewInspectMain()
	im.SetStdout(out)
	im.s3Client = client
	im.Output = "s3://out/tables"
	im.Tables = []string{"song_table"}
	im.Limit = 3
	test.ErrNil(t, im.Run(), "inspecting")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) < 5 {
		t.Fatalf("expected files, a summary and 3 rows, got:\n%s", out)
	}
	for _, l := range lines[len(lines)-3:] {
		if !strings.HasPrefix(l, "{") {
			t.Fatalf("expected a json row, got %q", l)
		}
	}
}

func TestMainErrors(t *testing.T) {
	input := genLocal(t)
	tests := []struct {
		name string
		set  func(m *Main)
		want string
	}{
		{name: "stage", set: func(m *Main) { m.Stages = []string{"load"} }, want: "unknown stage 'load'"},
		{name: "index", set: func(m *Main) { m.IndexType = "redis" }, want: "unknown index type 'redis'"},
		{name: "policy", set: func(m *Main) { m.BadRecords = "ignore" }, want: "ignore"},
		{name: "stats", set: func(m *Main) { m.Stats = "statsd" }, want: "unknown stats collector"},
		{name: "concurrency", set: func(m *Main) { m.Concurrency = 0 }, want: "concurrency must be at least 1"},
		{name: "missing input", set: func(m *Main) { m.Input = input + "/nope" }, want: "no such file"},
	}
	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			m := NewMain()
			m.SetStderr(&bytes.Buffer{})
			m.Input, m.Output = input, test.MustTempDir(t, "sparkify-output")
			tst.set(m)
			err := m.Run()
			if err == nil || !strings.Contains(err.Error(), tst.want) {
				t.Fatalf("expected error containing %q, got %v", tst.want, err)
			}
		})
	}
}

func keys(m map[string][]byte) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}
