package sparkify

import (
	"fmt"
)

// NextSongPage is the page value of log events which represent a song play.
const NextSongPage = "NextSong"

// SongRecord is one song-catalog document.
type SongRecord struct {
	SongID          string
	ArtistID        string
	Title           string
	Year            int32
	Duration        float64
	ArtistName      string
	ArtistLocation  string
	ArtistLatitude  *float64
	ArtistLongitude *float64
}

// ParseSongRecord converts a decoded catalog document into a SongRecord.
// song_id, artist_id, title and artist_name are required. A null or missing
// year, duration or location is read as its zero value, and null coordinates
// stay nil.
func ParseSongRecord(data interface{}) (SongRecord, error) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return SongRecord{}, &SchemaError{Reason: fmt.Sprintf("expected a JSON object, got %T", data)}
	}
	r := fieldReader{m: m}
	rec := SongRecord{
		SongID:          r.id("song_id"),
		ArtistID:        r.id("artist_id"),
		Title:           r.str("title", true),
		Year:            r.integer32("year", false),
		Duration:        r.number("duration", false),
		ArtistName:      r.str("artist_name", true),
		ArtistLocation:  r.str("artist_location", false),
		ArtistLatitude:  r.optFloat("artist_latitude"),
		ArtistLongitude: r.optFloat("artist_longitude"),
	}
	if r.err != nil {
		return SongRecord{}, r.err
	}
	return rec, nil
}

// LogRecord is one user-activity event.
type LogRecord struct {
	UserID        string
	FirstName     string
	LastName      string
	Gender        string
	Level         string
	Page          string
	TS            int64
	Artist        string
	Song          string
	SessionID     int64
	ItemInSession int64
	Location      string
	UserAgent     string
}

// IsPlay reports whether the event is a song play.
func (l LogRecord) IsPlay() bool { return l.Page == NextSongPage }

// ParseLogRecord converts a decoded activity document into a LogRecord. Only
// page is validated for events which are not song plays, since nothing else
// is read from them. Song plays additionally require userId, level, ts and
// sessionId. The remaining fields may be null.
func ParseLogRecord(data interface{}) (LogRecord, error) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return LogRecord{}, &SchemaError{Reason: fmt.Sprintf("expected a JSON object, got %T", data)}
	}
	r := fieldReader{m: m}
	rec := LogRecord{Page: r.str("page", true)}
	if r.err != nil {
		return LogRecord{}, r.err
	}
	if !rec.IsPlay() {
		return rec, nil
	}
	rec.UserID = r.id("userId")
	rec.FirstName = r.str("firstName", false)
	rec.LastName = r.str("lastName", false)
	rec.Gender = r.str("gender", false)
	rec.Level = r.str("level", true)
	rec.TS = r.integer("ts", true)
	rec.Artist = r.str("artist", false)
	rec.Song = r.str("song", false)
	rec.SessionID = r.integer("sessionId", true)
	rec.ItemInSession = r.integer("itemInSession", false)
	rec.Location = r.str("location", false)
	rec.UserAgent = r.str("userAgent", false)
	if r.err != nil {
		return LogRecord{}, r.err
	}
	return rec, nil
}
