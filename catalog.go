package sparkify

import (
	"sort"
)

// ExtractSongs projects catalog records onto the songs dimension and removes
// rows which are identical in every column. Records sharing a song_id but
// differing in another column are all kept. Rows are ordered by song_id.
func ExtractSongs(records []SongRecord) []Song {
	seen := make(map[string]struct{}, len(records))
	songs := make([]Song, 0, len(records))
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		s := Song{
			SongID:   rec.SongID,
			ArtistID: rec.ArtistID,
			Title:    rec.Title,
			Year:     rec.Year,
			Duration: rec.Duration,
		}
		k := s.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		songs = append(songs, s)
		keys = append(keys, k)
	}
	sort.Sort(byKey{
		n:    len(songs),
		less: func(i, j int) bool { return songs[i].SongID < songs[j].SongID },
		keys: keys,
		swap: func(i, j int) { songs[i], songs[j] = songs[j], songs[i] },
	})
	return songs
}

// ExtractArtists projects catalog records onto the artists dimension and
// removes rows which are identical in every column. Rows are ordered by
// artist_id.
func ExtractArtists(records []SongRecord) []Artist {
	seen := make(map[string]struct{}, len(records))
	artists := make([]Artist, 0, len(records))
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		a := Artist{
			ArtistID:  rec.ArtistID,
			Name:      rec.ArtistName,
			Location:  rec.ArtistLocation,
			Latitude:  rec.ArtistLatitude,
			Longitude: rec.ArtistLongitude,
		}
		k := a.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		artists = append(artists, a)
		keys = append(keys, k)
	}
	sort.Sort(byKey{
		n:    len(artists),
		less: func(i, j int) bool { return artists[i].ArtistID < artists[j].ArtistID },
		keys: keys,
		swap: func(i, j int) { artists[i], artists[j] = artists[j], artists[i] },
	})
	return artists
}

// byKey sorts rows by a primary ordering, falling back to the rows' keys so
// that the result is a total order. keys is kept aligned with the rows.
type byKey struct {
	n    int
	less func(i, j int) bool
	keys []string
	swap func(i, j int)
}

func (b byKey) Len() int { return b.n }

func (b byKey) Less(i, j int) bool {
	if b.less(i, j) {
		return true
	}
	if b.less(j, i) {
		return false
	}
	return b.keys[i] < b.keys[j]
}

func (b byKey) Swap(i, j int) {
	b.swap(i, j)
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}
