package sparkify_test

import (
	"strings"
	"testing"

	"github.com/pilosa/sparkify"
	"github.com/pilosa/sparkify/test"
)

func decode(t *testing.T, doc string) interface{} {
	t.Helper()
	rec, err := sparkify.NewJSONSource(strings.NewReader(doc)).Record()
	test.ErrNil(t, err, "decoding")
	return rec
}

func TestParseSongRecord(t *testing.T) {
	rec, err := sparkify.ParseSongRecord(decode(t, `{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1",
		"artist_latitude": null, "artist_longitude": -77.0, "artist_location": "California - LA",
		"artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To",
		"duration": 218.93179, "year": 0}`))
	test.ErrNil(t, err, "parsing")
	lon := -77.0
	test.MustBe(t, sparkify.SongRecord{
		SongID:          "SOMZWCG12A8C13C480",
		ArtistID:        "ARD7TVE1187B99BFB1",
		Title:           "I Didn't Mean To",
		Duration:        218.93179,
		ArtistName:      "Casual",
		ArtistLocation:  "California - LA",
		ArtistLongitude: &lon,
	}, rec)
}

func TestParseSongRecordErrors(t *testing.T) {
	tests := []struct {
		doc   string
		field string
	}{
		{doc: `{"artist_id": "AR1", "title": "t", "artist_name": "a"}`, field: "song_id"},
		{doc: `{"song_id": "", "artist_id": "AR1", "title": "t", "artist_name": "a"}`, field: "song_id"},
		{doc: `{"song_id": "S", "artist_id": null, "title": "t", "artist_name": "a"}`, field: "artist_id"},
		{doc: `{"song_id": "S", "artist_id": "A", "title": 7, "artist_name": "a"}`, field: "title"},
		{doc: `{"song_id": "S", "artist_id": "A", "title": "t", "artist_name": "a", "year": "1999"}`, field: "year"},
		{doc: `{"song_id": "S", "artist_id": "A", "title": "t", "artist_name": "a", "year": 1999.5}`, field: "year"},
		{doc: `{"song_id": "S", "artist_id": "A", "title": "t", "artist_name": "a", "year": 4294969296}`, field: "year"},
		{doc: `{"song_id": "S", "artist_id": "A", "title": "t", "artist_name": "a", "year": -2147483649}`, field: "year"},
		{doc: `{"song_id": "S", "artist_id": "A", "title": "t", "artist_name": "a", "duration": "long"}`, field: "duration"},
		{doc: `{"song_id": "S", "artist_id": "A", "title": "t", "artist_name": "a", "artist_latitude": "N"}`, field: "artist_latitude"},
		{doc: `["not", "an", "object"]`, field: ""},
	}
	for i, tst := range tests {
		_, err := sparkify.ParseSongRecord(decode(t, tst.doc))
		se, ok := err.(*sparkify.SchemaError)
		if !ok {
			t.Fatalf("test %d: expected *SchemaError, got %v", i, err)
		}
		test.MustBe(t, tst.field, se.Field, tst.doc)
	}
}

func TestParseLogRecord(t *testing.T) {
	rec, err := sparkify.ParseLogRecord(decode(t, `{"artist":"Des'ree","auth":"Logged In","firstName":"Kaylee",
		"gender":"F","itemInSession":1,"lastName":"Summers","length":246.30812,"level":"free",
		"location":"Phoenix-Mesa-Scottsdale, AZ","method":"PUT","page":"NextSong",
		"registration":1540344794796.0,"sessionId":139,"song":"You Gotta Be","status":200,
		"ts":1541106106796,"userAgent":"Mozilla/5.0","userId":"8"}`))
	test.ErrNil(t, err, "parsing")
	test.MustBe(t, sparkify.LogRecord{
		UserID:        "8",
		FirstName:     "Kaylee",
		LastName:      "Summers",
		Gender:        "F",
		Level:         "free",
		Page:          "NextSong",
		TS:            1541106106796,
		Artist:        "Des'ree",
		Song:          "You Gotta Be",
		SessionID:     139,
		ItemInSession: 1,
		Location:      "Phoenix-Mesa-Scottsdale, AZ",
		UserAgent:     "Mozilla/5.0",
	}, rec)
	if !rec.IsPlay() {
		t.Fatal("expected a song play")
	}
}

func TestParseLogRecordOtherPages(t *testing.T) {
	// logged out events have no user and are never validated further
	rec, err := sparkify.ParseLogRecord(decode(t, `{"artist":null,"page":"Home","ts":"soon","userId":""}`))
	test.ErrNil(t, err, "parsing")
	test.MustBe(t, sparkify.LogRecord{Page: "Home"}, rec)
	if rec.IsPlay() {
		t.Fatal("Home is not a song play")
	}

	tests := []struct {
		doc   string
		field string
	}{
		{doc: `{"ts": 1}`, field: "page"},
		{doc: `{"page":"NextSong","level":"free","ts":1,"sessionId":1}`, field: "userId"},
		{doc: `{"page":"NextSong","userId":"","level":"free","ts":1,"sessionId":1}`, field: "userId"},
		{doc: `{"page":"NextSong","userId":"1","ts":1,"sessionId":1}`, field: "level"},
		{doc: `{"page":"NextSong","userId":"1","level":"free","ts":"1","sessionId":1}`, field: "ts"},
		{doc: `{"page":"NextSong","userId":"1","level":"free","ts":1}`, field: "sessionId"},
	}
	for _, tst := range tests {
		_, err := sparkify.ParseLogRecord(decode(t, tst.doc))
		if !sparkify.IsSchemaError(err) {
			t.Fatalf("%s: expected schema error, got %v", tst.doc, err)
		}
		test.MustBe(t, tst.field, err.(*sparkify.SchemaError).Field, tst.doc)
	}
}

func TestLargeTimestampsKeepPrecision(t *testing.T) {
	rec, err := sparkify.ParseLogRecord(decode(t, `{"page":"NextSong","userId":"1","level":"free","ts":9007199254740993,"sessionId":1}`))
	test.ErrNil(t, err, "parsing")
	test.MustBe(t, int64(9007199254740993), rec.TS)
}

func TestParseSongRecordYearBounds(t *testing.T) {
	rec, err := sparkify.ParseSongRecord(decode(t, `{"song_id": "S", "artist_id": "A", "title": "t", "artist_name": "a", "year": 2147483647}`))
	test.ErrNil(t, err, "parsing")
	test.MustBe(t, int32(2147483647), rec.Year)
}

func TestFloatTimestampOverflow(t *testing.T) {
	doc := map[string]interface{}{
		"page": "NextSong", "userId": "1", "level": "free", "sessionId": float64(1),
	}
	for _, ts := range []float64{1 << 63, 1 << 64, -(1 << 64)} {
		doc["ts"] = ts
		_, err := sparkify.ParseLogRecord(doc)
		se, ok := err.(*sparkify.SchemaError)
		if !ok {
			t.Fatalf("ts %v: expected *SchemaError, got %v", ts, err)
		}
		test.MustBe(t, "ts", se.Field)
	}
	doc["ts"] = float64(-(1 << 63))
	rec, err := sparkify.ParseLogRecord(doc)
	test.ErrNil(t, err, "parsing minimum timestamp")
	test.MustBe(t, int64(-(1 << 63)), rec.TS)
}

func TestParseBadRecordPolicy(t *testing.T) {
	for in, want := range map[string]sparkify.BadRecordPolicy{
		"":      sparkify.FailOnBadRecord,
		"fail":  sparkify.FailOnBadRecord,
		" Skip": sparkify.SkipBadRecords,
	} {
		p, err := sparkify.ParseBadRecordPolicy(in)
		test.ErrNil(t, err, in)
		test.MustBe(t, want, p, in)
	}
	if _, err := sparkify.ParseBadRecordPolicy("ignore"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
	test.MustBe(t, "skip", sparkify.SkipBadRecords.String())
}

func TestSchemaErrorMessage(t *testing.T) {
	e := &sparkify.SchemaError{Field: "ts", Reason: "missing"}
	test.MustBe(t, `field "ts": missing`, e.Error())
	e.Object, e.Index = "log_data/2018/11/a.json", 3
	test.MustBe(t, `log_data/2018/11/a.json#3: field "ts": missing`, e.Error())
}
