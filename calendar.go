package sparkify

import (
	"time"
)

// StartTime converts an event timestamp in milliseconds since the Unix epoch
// to a time in UTC. Millisecond precision is kept.
func StartTime(ms int64) time.Time {
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond)).UTC()
}

// NewTime derives the time dimension row for an event timestamp in
// milliseconds since the Unix epoch. Week is the ISO 8601 week of the year and
// Weekday counts from 1 for Sunday to 7 for Saturday.
func NewTime(ms int64) Time {
	t := StartTime(ms)
	_, week := t.ISOWeek()
	return Time{
		StartTime: ms,
		Hour:      int32(t.Hour()),
		Day:       int32(t.Day()),
		Week:      int32(week),
		Weekday:   int32(t.Weekday()) + 1,
		Month:     int32(t.Month()),
		Year:      int32(t.Year()),
	}
}
