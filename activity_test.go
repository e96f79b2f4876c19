package sparkify_test

import (
	"testing"

	"github.com/pilosa/sparkify"
	"github.com/pilosa/sparkify/test"
)

func play(user string, ts, session, item int64, level, artist, song string) sparkify.LogRecord {
	return sparkify.LogRecord{
		UserID:        user,
		FirstName:     "First" + user,
		LastName:      "Last" + user,
		Gender:        "F",
		Level:         level,
		Page:          sparkify.NextSongPage,
		TS:            ts,
		Artist:        artist,
		Song:          song,
		SessionID:     session,
		ItemInSession: item,
		Location:      "Phoenix, AZ",
		UserAgent:     "Mozilla/5.0",
	}
}

func TestFilterPlays(t *testing.T) {
	recs := []sparkify.LogRecord{
		play("1", 3, 1, 0, "free", "a", "b"),
		{Page: "Home"},
		play("2", 1, 1, 0, "free", "a", "b"),
		{Page: "Logout"},
		{Page: "nextsong"},
	}
	plays := sparkify.FilterPlays(recs)
	test.MustBe(t, []sparkify.LogRecord{recs[0], recs[2]}, plays)
}

func TestNewTime(t *testing.T) {
	test.MustBe(t, sparkify.Time{
		StartTime: 1541121934796,
		Hour:      1,
		Day:       2,
		Week:      44,
		Weekday:   6,
		Month:     11,
		Year:      2018,
	}, sparkify.NewTime(1541121934796))
	test.MustBe(t, "2018-11-02T01:25:34.796Z", sparkify.StartTime(1541121934796).Format("2006-01-02T15:04:05.000Z07:00"))

	// Sunday, and the ISO week of Jan 1 2017 belongs to 2016
	sunday := sparkify.NewTime(1483228800000)
	test.MustBe(t, int32(1), sunday.Weekday, "weekday")
	test.MustBe(t, int32(52), sunday.Week, "week")
	test.MustBe(t, int32(2017), sunday.Year, "year")
}

func TestExtractUsersLatestWins(t *testing.T) {
	plays := []sparkify.LogRecord{
		play("15", 2000, 7, 1, "paid", "a", "s"),
		play("15", 1000, 5, 0, "free", "a", "s"),
		play("8", 1500, 3, 0, "free", "a", "s"),
		// same timestamp, later session wins
		play("8", 1500, 4, 0, "paid", "a", "s"),
		// same timestamp and session, later item wins
		play("3", 900, 1, 2, "paid", "a", "s"),
		play("3", 900, 1, 1, "free", "a", "s"),
	}
	want := []sparkify.User{
		{UserID: "15", FirstName: "First15", LastName: "Last15", Gender: "F", Level: "paid"},
		{UserID: "3", FirstName: "First3", LastName: "Last3", Gender: "F", Level: "paid"},
		{UserID: "8", FirstName: "First8", LastName: "Last8", Gender: "F", Level: "paid"},
	}
	test.MustBe(t, want, sparkify.ExtractUsers(plays))

	for i, j := 0, len(plays)-1; i < j; i, j = i+1, j-1 {
		plays[i], plays[j] = plays[j], plays[i]
	}
	test.MustBe(t, want, sparkify.ExtractUsers(plays), "reversed input")
}

func TestExtractUsersFullTie(t *testing.T) {
	a := play("1", 100, 1, 1, "free", "a", "s")
	b := play("1", 100, 1, 1, "paid", "a", "s")
	x := sparkify.ExtractUsers([]sparkify.LogRecord{a, b})
	y := sparkify.ExtractUsers([]sparkify.LogRecord{b, a})
	test.MustBe(t, 1, len(x))
	test.MustBe(t, x, y, "tie broken by row")
}

func TestExtractTimes(t *testing.T) {
	plays := []sparkify.LogRecord{
		play("1", 1541121934796, 1, 0, "free", "a", "s"),
		play("2", 1541106106796, 1, 0, "free", "a", "s"),
		play("3", 1541121934796, 2, 0, "free", "a", "s"),
	}
	times := sparkify.ExtractTimes(plays)
	test.MustBe(t, 2, len(times))
	test.MustBe(t, int64(1541106106796), times[0].StartTime)
	test.MustBe(t, int64(1541121934796), times[1].StartTime)
}

func TestExtractSongPlays(t *testing.T) {
	idx := sparkify.NewMemIndex()
	for _, rec := range test.CatalogRecords() {
		test.ErrNil(t, idx.Add(rec), "adding")
	}
	plays := []sparkify.LogRecord{
		play("2", 2000, 9, 0, "paid", "Nobody", "Hello"),
		play("1", 1541121934796, 5, 0, "free", "THE BAND", "hello"),
		play("1", 1000, 5, 0, "free", "Beyoncé", "Halo"),
		// exact duplicate of the first event
		play("2", 2000, 9, 0, "paid", "Nobody", "Hello"),
		play("1", 1000, 4, 1, "free", "", ""),
	}
	rows, js, err := sparkify.ExtractSongPlays(plays, idx, false)
	test.ErrNil(t, err, "joining")
	test.MustBe(t, sparkify.JoinStats{Matched: 2, Unmatched: 3}, js)
	test.MustBe(t, 4, len(rows))

	type brief struct {
		ID, TS, Session int64
		Song            string
	}
	got := make([]brief, len(rows))
	for i, r := range rows {
		song := "<nil>"
		if r.SongID != nil {
			song = *r.SongID + "/" + *r.ArtistID
		} else if r.ArtistID != nil {
			t.Fatalf("row %d has an artist without a song", i)
		}
		got[i] = brief{r.SongplayID, r.StartTime, r.SessionID, song}
	}
	test.MustBe(t, []brief{
		{1, 1000, 4, "<nil>"},
		{2, 1000, 5, "SOD/AR4"},
		{3, 2000, 9, "<nil>"},
		{4, 1541121934796, 5, "SOA1/AR1"},
	}, got)
	test.MustBe(t, int32(2018), rows[3].Year, "year")
	test.MustBe(t, int32(11), rows[3].Month, "month")

	dropped, js, err := sparkify.ExtractSongPlays(plays, idx, true)
	test.ErrNil(t, err, "joining")
	test.MustBe(t, sparkify.JoinStats{Matched: 2, Unmatched: 3, Dropped: 3}, js)
	test.MustBe(t, 2, len(dropped))
	test.MustBe(t, int64(1), dropped[0].SongplayID)
	test.MustBe(t, int64(2), dropped[1].SongplayID)
}
