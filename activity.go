package sparkify

import (
	"sort"

	"github.com/pkg/errors"
)

// FilterPlays returns the song play events in records, preserving order.
func FilterPlays(records []LogRecord) []LogRecord {
	plays := make([]LogRecord, 0, len(records))
	for _, rec := range records {
		if rec.IsPlay() {
			plays = append(plays, rec)
		}
	}
	return plays
}

// ExtractUsers builds the users dimension from song play events with exactly
// one row per user_id. A user's row is projected from their latest event,
// ordered by timestamp, then session id, then position within the session.
// Events which tie on all three are decided by comparing the projected rows,
// so the result does not depend on the order of plays. Rows are ordered by
// user_id.
func ExtractUsers(plays []LogRecord) []User {
	type latest struct {
		ev  LogRecord
		row User
		key string
	}
	byUser := make(map[string]*latest)
	for _, ev := range plays {
		u := User{
			UserID:    ev.UserID,
			FirstName: ev.FirstName,
			LastName:  ev.LastName,
			Gender:    ev.Gender,
			Level:     ev.Level,
		}
		k := u.key()
		cur, ok := byUser[ev.UserID]
		if !ok {
			byUser[ev.UserID] = &latest{ev: ev, row: u, key: k}
			continue
		}
		if c := compareEventOrder(ev, cur.ev); c > 0 || (c == 0 && k > cur.key) {
			cur.ev, cur.row, cur.key = ev, u, k
		}
	}
	users := make([]User, 0, len(byUser))
	for _, l := range byUser {
		users = append(users, l.row)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}

func compareEventOrder(a, b LogRecord) int {
	switch {
	case a.TS != b.TS:
		return cmpInt64(a.TS, b.TS)
	case a.SessionID != b.SessionID:
		return cmpInt64(a.SessionID, b.SessionID)
	default:
		return cmpInt64(a.ItemInSession, b.ItemInSession)
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ExtractTimes builds the time dimension with one row per distinct event
// timestamp, ordered by start time.
func ExtractTimes(plays []LogRecord) []Time {
	seen := make(map[int64]struct{}, len(plays))
	stamps := make([]int64, 0, len(plays))
	for _, ev := range plays {
		if _, ok := seen[ev.TS]; ok {
			continue
		}
		seen[ev.TS] = struct{}{}
		stamps = append(stamps, ev.TS)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })
	times := make([]Time, len(stamps))
	for i, ts := range stamps {
		times[i] = NewTime(ts)
	}
	return times
}

// JoinStats reports how song play events fared against the catalog.
type JoinStats struct {
	Matched   int
	Unmatched int
	// Dropped is the number of unmatched events left out of the fact table.
	Dropped int
}

// ExtractSongPlays joins song play events against the catalog index and
// builds the songplays fact table. Events with no catalog song by their artist
// keep nil song and artist ids, unless dropUnmatched is set, in which case they
// are left out. Rows which are identical in every projected column are
// removed. The remaining rows are ordered by start time, user id and session
// id and numbered from 1 in that order.
func ExtractSongPlays(plays []LogRecord, idx CatalogIndex, dropUnmatched bool) ([]SongPlay, JoinStats, error) {
	var stats JoinStats
	seen := make(map[string]struct{}, len(plays))
	rows := make([]SongPlay, 0, len(plays))
	keys := make([]string, 0, len(plays))
	for _, ev := range plays {
		m, err := idx.Lookup(ev.Artist, ev.Song)
		if err != nil {
			return nil, stats, errors.Wrapf(err, "looking up artist %q", ev.Artist)
		}
		t := NewTime(ev.TS)
		sp := SongPlay{
			StartTime: ev.TS,
			UserID:    ev.UserID,
			Level:     ev.Level,
			SessionID: ev.SessionID,
			Location:  ev.Location,
			UserAgent: ev.UserAgent,
			Month:     t.Month,
			Year:      t.Year,
		}
		if m != nil {
			stats.Matched++
			songID, artistID := m.SongID, m.ArtistID
			sp.SongID, sp.ArtistID = &songID, &artistID
		} else {
			stats.Unmatched++
			if dropUnmatched {
				stats.Dropped++
				continue
			}
		}
		k := sp.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, sp)
		keys = append(keys, k)
	}
	sort.Sort(byKey{
		n: len(rows),
		less: func(i, j int) bool {
			a, b := rows[i], rows[j]
			if a.StartTime != b.StartTime {
				return a.StartTime < b.StartTime
			}
			if a.UserID != b.UserID {
				return a.UserID < b.UserID
			}
			return a.SessionID < b.SessionID
		},
		keys: keys,
		swap: func(i, j int) { rows[i], rows[j] = rows[j], rows[i] },
	})
	for i := range rows {
		rows[i].SongplayID = int64(i + 1)
	}
	return rows, stats, nil
}
