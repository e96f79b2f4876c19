package fake_test

import (
	"strings"
	"testing"

	"github.com/pilosa/sparkify"
	"github.com/pilosa/sparkify/fake"
	"github.com/pilosa/sparkify/test"
)

func TestDatasetFiles(t *testing.T) {
	d := fake.NewDataset(7)
	files, err := d.Files()
	test.ErrNil(t, err, "generating files")

	var songFiles, logFiles int
	for name, data := range files {
		switch {
		case strings.HasPrefix(name, "song_data/"):
			songFiles++
			src := sparkify.NewJSONSource(strings.NewReader(string(data)))
			rec, err := src.Record()
			test.ErrNil(t, err, "decoding "+name)
			if _, err := sparkify.ParseSongRecord(rec); err != nil {
				t.Fatalf("parsing %s: %v", name, err)
			}
		case strings.HasPrefix(name, "log_data/2018/11/"):
			logFiles++
			src := sparkify.NewJSONSource(strings.NewReader(string(data)))
			for i := 0; ; i++ {
				rec, err := src.Record()
				if err != nil {
					break
				}
				if _, err := sparkify.ParseLogRecord(rec); err != nil {
					t.Fatalf("parsing %s#%d: %v", name, i, err)
				}
			}
		default:
			t.Fatalf("unexpected file %s", name)
		}
	}
	if songFiles != d.Songs {
		t.Fatalf("got %d song files, want %d", songFiles, d.Songs)
	}
	if logFiles == 0 {
		t.Fatal("no log files")
	}
}

func TestDatasetDeterministic(t *testing.T) {
	a, err := fake.NewDataset(3).Files()
	test.ErrNil(t, err, "generating first")
	b, err := fake.NewDataset(3).Files()
	test.ErrNil(t, err, "generating second")
	test.MustBe(t, a, b)
}

func TestDatasetMatchesCatalog(t *testing.T) {
	songs, events, err := fake.NewDataset(11).Generate()
	test.ErrNil(t, err, "generating")
	idx := sparkify.NewMemIndex()
	for _, s := range songs {
		test.ErrNil(t, idx.Add(sparkify.SongRecord{SongID: s.SongID, ArtistID: s.ArtistID, Title: s.Title, ArtistName: s.ArtistName}), "adding")
	}
	var matched, unmatched int
	for _, ev := range events {
		if ev.Page != sparkify.NextSongPage {
			continue
		}
		m, err := idx.Lookup(*ev.Artist, *ev.Song)
		test.ErrNil(t, err, "looking up")
		if m == nil {
			unmatched++
		} else {
			matched++
		}
	}
	if matched == 0 || unmatched == 0 {
		t.Fatalf("expected both matched and unmatched plays, got %d and %d", matched, unmatched)
	}
}
