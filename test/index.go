package test

import (
	"sync"
	"testing"

	"github.com/pilosa/sparkify"
)

// CatalogRecords is a small song catalog with several songs filed under the
// same artist name in different spellings, and names containing NUL bytes.
func CatalogRecords() []sparkify.SongRecord {
	return []sparkify.SongRecord{
		{SongID: "SOA1", ArtistID: "AR1", Title: "Hello", ArtistName: "The Band"},
		{SongID: "SOA0", ArtistID: "AR1", Title: "Other", ArtistName: "the band "},
		{SongID: "SOB", ArtistID: "AR2", Title: "hello", ArtistName: "THE BAND"},
		{SongID: "SOB", ArtistID: "AR0", Title: "Goodbye", ArtistName: "The Band"},
		{SongID: "SOC", ArtistID: "AR3", Title: "Straße", ArtistName: "Ärzte"},
		{SongID: "SOD", ArtistID: "AR4", Title: "Halo", ArtistName: "Beyoncé"},
		{SongID: "SOZ", ArtistID: "AR9", Title: "Silence", ArtistName: "  "},
		{SongID: "SOREAL", ArtistID: "ARREAL", Title: "x", ArtistName: "a\x00b"},
		{SongID: "SON\x00", ArtistID: "AR\x00N", Title: "Nul\x00Title", ArtistName: "Nul"},
	}
}

// CatalogLookup is a lookup against CatalogRecords and its expected match.
type CatalogLookup struct {
	Artist, Song string
	Want         *sparkify.Match
}

// CatalogLookups are the expected matches for lookups against
// CatalogRecords.
func CatalogLookups() []CatalogLookup {
	return []CatalogLookup{
		{Artist: "the band", Song: "HELLO", Want: &sparkify.Match{SongID: "SOA1", ArtistID: "AR1"}},
		{Artist: "The Band", Song: "Unknown", Want: &sparkify.Match{SongID: "SOA0", ArtistID: "AR1"}},
		{Artist: "  THE BAND", Song: "other ", Want: &sparkify.Match{SongID: "SOA0", ArtistID: "AR1"}},
		{Artist: "The Band", Song: "Goodbye", Want: &sparkify.Match{SongID: "SOB", ArtistID: "AR0"}},
		{Artist: "ÄRZTE", Song: "STRASSE", Want: &sparkify.Match{SongID: "SOC", ArtistID: "AR3"}},
		{Artist: "BEYONCÉ", Song: "halo", Want: &sparkify.Match{SongID: "SOD", ArtistID: "AR4"}},
		{Artist: "Nobody", Song: "Hello"},
		{Artist: "", Song: "Silence"},
		{Artist: "   ", Song: "Silence"},
		{Artist: "a", Song: "x"},
		{Artist: "A\x00B", Song: "X", Want: &sparkify.Match{SongID: "SOREAL", ArtistID: "ARREAL"}},
		{Artist: "nul", Song: "nul\x00title", Want: &sparkify.Match{SongID: "SON\x00", ArtistID: "AR\x00N"}},
	}
}

// CheckCatalogIndex fills indexes from newIndex with CatalogRecords and
// checks every CatalogLookup against them.
func CheckCatalogIndex(t *testing.T, newIndex func() (sparkify.CatalogIndex, error)) {
	t.Helper()
	recs := CatalogRecords()

	t.Run("sequential", func(t *testing.T) {
		idx, err := newIndex()
		ErrNil(t, err, "opening index")
		defer idx.Close()
		for _, rec := range recs {
			ErrNil(t, idx.Add(rec), "adding "+rec.SongID)
		}
		checkLookups(t, idx)
	})

	t.Run("concurrent", func(t *testing.T) {
		idx, err := newIndex()
		ErrNil(t, err, "opening index")
		defer idx.Close()
		var wg sync.WaitGroup
		errs := make([]error, len(recs))
		for i := range recs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = idx.Add(recs[len(recs)-1-i])
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			ErrNil(t, err, "adding concurrently")
		}
		checkLookups(t, idx)
	})
}

func checkLookups(t *testing.T, idx sparkify.CatalogIndex) {
	t.Helper()
	for _, l := range CatalogLookups() {
		got, err := idx.Lookup(l.Artist, l.Song)
		ErrNil(t, err, "looking up "+l.Artist)
		MustBe(t, l.Want, got, l.Artist+"/"+l.Song)
	}
}
