package sparkify_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pilosa/sparkify"
	"github.com/pilosa/sparkify/file"
	"github.com/pilosa/sparkify/mock"
	"github.com/pilosa/sparkify/parquet"
	"github.com/pilosa/sparkify/test"
	"github.com/pkg/errors"
)

var sessionInput = map[string]string{
	"song_data/A/A/A/TRAAA1.json": `{"num_songs": 1, "artist_id": "AR1", "artist_latitude": null, "artist_longitude": null,
		"artist_location": "", "artist_name": "The Band", "song_id": "SOA1", "title": "Hello", "duration": 180.5, "year": 1999}`,
	"song_data/A/A/B/TRAAB1.json": `{"num_songs": 1, "artist_id": "AR4", "artist_latitude": 29.76, "artist_longitude": -95.36,
		"artist_location": "Houston, TX", "artist_name": "Beyoncé", "song_id": "SOD", "title": "Halo", "duration": 261.0, "year": 2008}`,
	"song_data/A/A/B/TRAAB2.json": `{"num_songs": 1, "artist_id": "AR4", "artist_latitude": 29.76, "artist_longitude": -95.36,
		"artist_location": "Houston, TX", "artist_name": "Beyoncé", "song_id": "SOD", "title": "Halo", "duration": 261.0, "year": 2008}`,
	"log_data/2018/11/2018-11-02-events.json": strings.Join([]string{
		`{"artist":"THE BAND","auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":0,"lastName":"Summers","length":180.5,"level":"free","location":"Phoenix, AZ","method":"PUT","page":"NextSong","registration":1540344794796,"sessionId":139,"song":"hello","status":200,"ts":1541121934796,"userAgent":"Mozilla/5.0","userId":"8"}`,
		`{"artist":null,"auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":1,"lastName":"Summers","length":null,"level":"free","location":"Phoenix, AZ","method":"GET","page":"Home","registration":1540344794796,"sessionId":139,"song":null,"status":200,"ts":1541121999796,"userAgent":"Mozilla/5.0","userId":"8"}`,
		`{"artist":"Nobody","auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":2,"lastName":"Summers","length":200.0,"level":"paid","location":"Phoenix, AZ","method":"PUT","page":"NextSong","registration":1540344794796,"sessionId":139,"song":"Unknown","status":200,"ts":1541122176796,"userAgent":"Mozilla/5.0","userId":"8"}`,
	}, "\n"),
	"log_data/2018/12/2018-12-01-events.json": `{"artist":"Beyoncé","auth":"Logged In","firstName":"Lily","gender":"F","itemInSession":0,"lastName":"Koch","length":261.0,"level":"paid","location":"Chicago, IL","method":"PUT","page":"NextSong","registration":1540344794796,"sessionId":7,"song":"Halo","status":200,"ts":1543622400000,"userAgent":"curl","userId":"15"}`,
}

func newTestSession(t *testing.T, opts ...sparkify.SessionOption) (*sparkify.Session, *mock.RecordingStatter) {
	t.Helper()
	sink, err := parquet.NewLocalSink()
	test.ErrNil(t, err, "getting sink")
	stats := &mock.RecordingStatter{}
	opts = append([]sparkify.SessionOption{
		sparkify.OptSessionStorage(sparkify.StorageMux{"": file.Storage{}}),
		sparkify.OptSessionSink(sparkify.SinkMux{"": sink}),
		sparkify.OptSessionStatter(stats),
		sparkify.OptSessionConcurrency(3),
	}, opts...)
	sess, err := sparkify.NewSession(opts...)
	test.ErrNil(t, err, "creating session")
	return sess, stats
}

func TestRun(t *testing.T) {
	in, out := test.MustTempDir(t, "sparkify-in"), test.MustTempDir(t, "sparkify-out")
	test.MustWriteFiles(t, in, sessionInput)
	sess, stats := newTestSession(t)
	ctx := context.Background()
	test.ErrNil(t, sparkify.Run(ctx, sess, in, out), "running")

	first := test.MustReadFiles(t, out)
	var names []string
	for name := range first {
		names = append(names, name)
	}
	for _, want := range []string{
		"song_table/part-00000.parquet",
		"artist_table/part-00000.parquet",
		"user_table/part-00000.parquet",
		"time_table/year=2018/month=11/part-00000.parquet",
		"time_table/year=2018/month=12/part-00000.parquet",
		"songplay_table/year=2018/month=11/part-00000.parquet",
		"songplay_table/year=2018/month=12/part-00000.parquet",
	} {
		if _, ok := first[want]; !ok {
			t.Fatalf("missing %s in %v", want, names)
		}
	}
	test.MustBe(t, 7, len(first), "number of files")

	for name, want := range map[string]int64{
		"records.read.catalog":        3,
		"records.read.index":          3,
		"records.read.activity":       4,
		"records.skipped.activity":    0,
		"rows.written.song_table":     2,
		"rows.written.artist_table":   2,
		"rows.written.user_table":     2,
		"rows.written.time_table":     3,
		"rows.written.songplay_table": 3,
		"songplays.unmatched":         1,
	} {
		test.MustBe(t, want, stats.Count64(name), name)
	}

	// every matched song play refers to a song and an artist that were written
	r := parquet.NewReader(nil)
	songs := readTable(t, r, out, sparkify.SongTableName, new(sparkify.Song))
	artists := readTable(t, r, out, sparkify.ArtistTableName, new(sparkify.Artist))
	plays := readTable(t, r, out, sparkify.SongPlayTableName, new(sparkify.SongPlay))
	songIDs, artistIDs := map[string]bool{}, map[string]bool{}
	for _, s := range songs {
		songIDs[s.(sparkify.Song).SongID] = true
	}
	for _, a := range artists {
		artistIDs[a.(sparkify.Artist).ArtistID] = true
	}
	var ids []int64
	for _, p := range plays {
		sp := p.(sparkify.SongPlay)
		ids = append(ids, sp.SongplayID)
		if sp.SongID != nil && (!songIDs[*sp.SongID] || !artistIDs[*sp.ArtistID]) {
			t.Fatalf("song play %d refers to missing %s/%s", sp.SongplayID, *sp.SongID, *sp.ArtistID)
		}
	}
	test.MustBe(t, []int64{1, 2, 3}, ids)

	users := readTable(t, r, out, sparkify.UserTableName, new(sparkify.User))
	test.MustBe(t, "paid", users[1].(sparkify.User).Level, "latest level of user 8")

	// a second run over the same input gives the same bytes
	sess2, _ := newTestSession(t)
	test.ErrNil(t, sparkify.Run(ctx, sess2, in, out), "running again")
	test.MustBe(t, first, test.MustReadFiles(t, out), "rerun output")
}

func readTable(t *testing.T, r *parquet.Reader, base, table string, proto interface{}) []interface{} {
	t.Helper()
	ctx := context.Background()
	files, err := r.Files(ctx, base, table)
	test.ErrNil(t, err, "listing "+table)
	var rows []interface{}
	for _, f := range files {
		rs, err := r.ReadFile(ctx, base, table, f, proto)
		test.ErrNil(t, err, "reading "+f)
		rows = append(rows, rs...)
	}
	return rows
}

func TestRunBadRecords(t *testing.T) {
	in := test.MustTempDir(t, "sparkify-in")
	test.MustWriteFiles(t, in, sessionInput)
	test.MustWriteFiles(t, in, map[string]string{
		"log_data/2018/11/2018-11-03-events.json": `{"page":"NextSong","userId":"1","level":"free","sessionId":1}`,
	})

	out := test.MustTempDir(t, "sparkify-out")
	sess, _ := newTestSession(t)
	err := sparkify.ProcessLogData(context.Background(), sess, in, out)
	se, ok := errors.Cause(err).(*sparkify.SchemaError)
	if !ok {
		t.Fatalf("expected schema error, got %v", err)
	}
	test.MustBe(t, "log_data/2018/11/2018-11-03-events.json", se.Object)
	test.MustBe(t, 0, se.Index)
	test.MustBe(t, "ts", se.Field)
	test.MustBe(t, 0, len(test.MustReadFiles(t, out)), "files after failure")

	sess, stats := newTestSession(t, sparkify.OptSessionBadRecords(sparkify.SkipBadRecords))
	test.ErrNil(t, sparkify.ProcessLogData(context.Background(), sess, in, out), "skipping")
	test.MustBe(t, int64(1), stats.Count64("records.skipped.activity"))
	test.MustBe(t, int64(5), stats.Count64("records.read.activity"))
	test.MustBe(t, int64(3), stats.Count64("rows.written.songplay_table"))
}

func TestRunDropUnmatched(t *testing.T) {
	in, out := test.MustTempDir(t, "sparkify-in"), test.MustTempDir(t, "sparkify-out")
	test.MustWriteFiles(t, in, sessionInput)
	sess, stats := newTestSession(t, sparkify.OptSessionDropUnmatched(true))
	test.ErrNil(t, sparkify.ProcessLogData(context.Background(), sess, in, out), "running")
	test.MustBe(t, int64(2), stats.Count64("rows.written.songplay_table"))
	test.MustBe(t, int64(1), stats.Count64("songplays.unmatched"))
}

func TestRunNoInput(t *testing.T) {
	in, out := test.MustTempDir(t, "sparkify-in"), test.MustTempDir(t, "sparkify-out")
	sess, _ := newTestSession(t)
	err := sparkify.ProcessSongData(context.Background(), sess, in, out)
	if errors.Cause(err) != sparkify.ErrNoInput {
		t.Fatalf("expected ErrNoInput, got %v", err)
	}
}

func TestArtistTransformer(t *testing.T) {
	in, out := test.MustTempDir(t, "sparkify-in"), test.MustTempDir(t, "sparkify-out")
	test.MustWriteFiles(t, in, sessionInput)
	var seen []string
	sess, _ := newTestSession(t,
		sparkify.OptSessionConcurrency(1),
		sparkify.OptSessionArtistTransformer(sparkify.ArtistTransformerFunc(func(a *sparkify.Artist) error {
			seen = append(seen, a.ArtistID)
			return nil
		})))
	test.ErrNil(t, sparkify.ProcessSongData(context.Background(), sess, in, out), "running")
	test.MustBe(t, []string{"AR1", "AR4"}, seen)

	sess, _ = newTestSession(t, sparkify.OptSessionArtistTransformer(sparkify.ArtistTransformerFunc(func(a *sparkify.Artist) error {
		return errors.New("nope")
	})))
	if err := sparkify.ProcessSongData(context.Background(), sess, in, out); err == nil {
		t.Fatal("expected transformer error")
	}
}

func TestNewSession(t *testing.T) {
	if _, err := sparkify.NewSession(); err == nil {
		t.Fatal("expected error without storage")
	}
	if _, err := sparkify.NewSession(sparkify.OptSessionStorage(file.Storage{})); err == nil {
		t.Fatal("expected error without sink")
	}
	sess, _ := newTestSession(t, sparkify.OptSessionGlobs("", "logs/*.json"))
	test.MustBe(t, sparkify.DefaultSongGlob, sess.SongGlob)
	test.MustBe(t, "logs/*.json", sess.LogGlob)
	if _, err := sparkify.NewSession(sparkify.OptSessionConcurrency(0)); err == nil {
		t.Fatal("expected error for zero concurrency")
	}
}
