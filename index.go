package sparkify

import (
	"bytes"
	"encoding/binary"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// CatalogIndex maps artist names to catalog songs so that activity events,
// which only carry free-text artist and song names, can be joined against the
// catalog. Implementations must be safe for concurrent use and must resolve
// every lookup the way ChooseCandidate does.
type CatalogIndex interface {
	// Add makes a catalog record available to Lookup.
	Add(rec SongRecord) error

	// Lookup returns the catalog song an event with the given artist and
	// song names refers to, or nil if there is no song by that artist.
	Lookup(artist, song string) (*Match, error)

	Close() error
}

// Match identifies the catalog song an event was joined to.
type Match struct {
	SongID   string
	ArtistID string
}

// Candidate is one catalog song filed under a normalized artist name.
type Candidate struct {
	SongID   string
	ArtistID string
	// Title is normalized with NormalizeName.
	Title string
}

// NormalizeName trims surrounding white space and case folds s so that names
// which differ only in case or padding compare equal.
func NormalizeName(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// ChooseCandidate picks the song an event refers to among every catalog song
// by the event's artist. Candidates whose title equals the normalized song
// title are preferred. Among the preferred candidates (or all of them, if none
// is preferred) the lowest song id wins, then the lowest artist id.
func ChooseCandidate(cands []Candidate, title string) *Match {
	var best *Candidate
	bestTitled := false
	for i := range cands {
		c := &cands[i]
		titled := title != "" && c.Title == title
		switch {
		case best == nil:
		case titled != bestTitled:
			if !titled {
				continue
			}
		case c.SongID > best.SongID:
			continue
		case c.SongID == best.SongID && c.ArtistID >= best.ArtistID:
			continue
		}
		best, bestTitled = c, titled
	}
	if best == nil {
		return nil
	}
	return &Match{SongID: best.SongID, ArtistID: best.ArtistID}
}

// CandidateKey returns the key under which an on-disk index stores a
// candidate for a normalized artist name. Keys for one artist share the
// ArtistPrefix of that artist. The artist, song id and artist id are each
// preceded by their uvarint length and the title takes the rest of the key,
// so names containing any byte, NUL included, cannot collide. Every field of
// the candidate is part of the key, so candidates which differ in any field
// are stored separately.
func CandidateKey(artist string, c Candidate) []byte {
	key := ArtistPrefix(artist)
	key = appendField(key, c.SongID)
	key = appendField(key, c.ArtistID)
	return append(key, c.Title...)
}

// ArtistPrefix is the key prefix shared by every candidate of a normalized
// artist name. No artist's prefix is a prefix of another artist's.
func ArtistPrefix(artist string) []byte {
	return appendField(make([]byte, 0, len(artist)+binary.MaxVarintLen64), artist)
}

func appendField(b []byte, s string) []byte {
	var n [binary.MaxVarintLen64]byte
	b = append(b, n[:binary.PutUvarint(n[:], uint64(len(s)))]...)
	return append(b, s...)
}

// readField consumes a length prefixed field from the front of b.
func readField(b []byte) (string, []byte, bool) {
	l, n := binary.Uvarint(b)
	if n <= 0 || uint64(len(b)-n) < l {
		return "", nil, false
	}
	b = b[n:]
	return string(b[:l]), b[l:], true
}

// DecodeCandidate reverses CandidateKey for a key known to start with the
// given artist's prefix.
func DecodeCandidate(artist string, key []byte) (Candidate, error) {
	prefix := ArtistPrefix(artist)
	if !bytes.HasPrefix(key, prefix) {
		return Candidate{}, errors.Errorf("key %q is not filed under artist %q", key, artist)
	}
	songID, rest, ok := readField(key[len(prefix):])
	if !ok {
		return Candidate{}, errors.Errorf("malformed candidate key %q", key)
	}
	artistID, rest, ok := readField(rest)
	if !ok {
		return Candidate{}, errors.Errorf("malformed candidate key %q", key)
	}
	return Candidate{
		SongID:   songID,
		ArtistID: artistID,
		Title:    string(rest),
	}, nil
}

// NewCandidate normalizes a catalog record into the artist name it is filed
// under and its candidate entry. ok is false for records with a blank artist
// name, which can never be matched.
func NewCandidate(rec SongRecord) (artist string, c Candidate, ok bool) {
	artist = NormalizeName(rec.ArtistName)
	if artist == "" {
		return "", Candidate{}, false
	}
	return artist, Candidate{
		SongID:   rec.SongID,
		ArtistID: rec.ArtistID,
		Title:    NormalizeName(rec.Title),
	}, true
}

// MemIndex is a CatalogIndex held entirely in memory.
type MemIndex struct {
	mu       sync.RWMutex
	byArtist map[string][]Candidate
}

var _ CatalogIndex = &MemIndex{}

// NewMemIndex gets a new, empty MemIndex.
func NewMemIndex() *MemIndex {
	return &MemIndex{byArtist: make(map[string][]Candidate)}
}

// Add implements CatalogIndex.
func (m *MemIndex) Add(rec SongRecord) error {
	artist, c, ok := NewCandidate(rec)
	if !ok {
		return nil
	}
	m.mu.Lock()
	m.byArtist[artist] = append(m.byArtist[artist], c)
	m.mu.Unlock()
	return nil
}

// Lookup implements CatalogIndex.
func (m *MemIndex) Lookup(artist, song string) (*Match, error) {
	artist = NormalizeName(artist)
	if artist == "" {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ChooseCandidate(m.byArtist[artist], NormalizeName(song)), nil
}

// Close implements CatalogIndex.
func (m *MemIndex) Close() error { return nil }
