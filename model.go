package sparkify

import (
	"strconv"
	"strings"
)

// Song is a row of the songs dimension.
type Song struct {
	SongID   string  `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistID string  `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Title    string  `parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year     int32   `parquet:"name=year, type=INT32"`
	Duration float64 `parquet:"name=duration, type=DOUBLE"`
}

func (s Song) key() string {
	var k rowKey
	k.str(s.SongID)
	k.str(s.ArtistID)
	k.str(s.Title)
	k.i64(int64(s.Year))
	k.f64(&s.Duration)
	return k.String()
}

// Artist is a row of the artists dimension.
type Artist struct {
	ArtistID  string   `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name      string   `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Location  string   `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8"`
	Latitude  *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Geohash   *string  `parquet:"name=geohash, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

func (a Artist) key() string {
	var k rowKey
	k.str(a.ArtistID)
	k.str(a.Name)
	k.str(a.Location)
	k.f64(a.Latitude)
	k.f64(a.Longitude)
	return k.String()
}

// User is a row of the users dimension.
type User struct {
	UserID    string `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	FirstName string `parquet:"name=first_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	LastName  string `parquet:"name=last_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Gender    string `parquet:"name=gender, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level     string `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func (u User) key() string {
	var k rowKey
	k.str(u.UserID)
	k.str(u.FirstName)
	k.str(u.LastName)
	k.str(u.Gender)
	k.str(u.Level)
	return k.String()
}

// Time is a row of the time dimension. Year and Month are partition columns:
// they are encoded in the partition path rather than in the files.
type Time struct {
	StartTime int64 `parquet:"name=start_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Hour      int32 `parquet:"name=hour, type=INT32"`
	Day       int32 `parquet:"name=day, type=INT32"`
	Week      int32 `parquet:"name=week, type=INT32"`
	Weekday   int32 `parquet:"name=weekday, type=INT32"`
	Month     int32
	Year      int32
}

// SongPlay is a row of the songplays fact table. SongID and ArtistID are nil
// when the event could not be matched against the catalog. Year and Month
// are carried from the event's start time for partitioning and are not
// written to the files.
type SongPlay struct {
	SongplayID int64   `parquet:"name=songplay_id, type=INT64"`
	StartTime  int64   `parquet:"name=start_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	UserID     string  `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level      string  `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
	SongID     *string `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	ArtistID   *string `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	SessionID  int64   `parquet:"name=session_id, type=INT64"`
	Location   string  `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserAgent  string  `parquet:"name=user_agent, type=BYTE_ARRAY, convertedtype=UTF8"`
	Month      int32
	Year       int32
}

// key covers every projected column except the generated SongplayID.
func (p SongPlay) key() string {
	var k rowKey
	k.i64(p.StartTime)
	k.str(p.UserID)
	k.i64(p.SessionID)
	k.str(p.Level)
	k.optStr(p.SongID)
	k.optStr(p.ArtistID)
	k.str(p.Location)
	k.str(p.UserAgent)
	return k.String()
}

// rowKey builds an unambiguous string from a row's column values, used to
// detect exact duplicates and to give rows a total order.
type rowKey struct {
	strings.Builder
}

func (k *rowKey) str(s string) {
	k.WriteString(strconv.Itoa(len(s)))
	k.WriteByte(':')
	k.WriteString(s)
}

func (k *rowKey) optStr(s *string) {
	if s == nil {
		k.WriteByte('-')
		return
	}
	k.WriteByte('+')
	k.str(*s)
}

func (k *rowKey) i64(i int64) {
	k.WriteString(strconv.FormatInt(i, 10))
	k.WriteByte(';')
}

func (k *rowKey) f64(f *float64) {
	if f == nil {
		k.WriteString("-;")
		return
	}
	k.WriteString(strconv.FormatFloat(*f, 'g', -1, 64))
	k.WriteByte(';')
}
