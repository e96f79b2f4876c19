package fake

import (
	"fmt"
	"math"

	"github.com/pilosa/sparkify/fake/gen"
)

// Song is one song-catalog document, shaped like the files of the public
// Million Song Dataset subset.
type Song struct {
	NumSongs        int      `json:"num_songs"`
	ArtistID        string   `json:"artist_id"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistName      string   `json:"artist_name"`
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	Duration        float64  `json:"duration"`
	Year            int      `json:"year"`

	// TrackID names the file the song is stored in.
	TrackID string `json:"-"`
}

// Artist is a generated performer.
type Artist struct {
	ID        string
	Name      string
	Location  string
	Latitude  *float64
	Longitude *float64
}

type place struct {
	name     string
	lat, lon float64
}

var places = []place{
	{"Chicago, IL", 41.88415, -87.63241},
	{"New York, NY", 40.71455, -74.00712},
	{"London, England", 51.50632, -0.12714},
	{"Los Angeles, CA", 34.05349, -118.24532},
	{"Detroit, MI", 42.33168, -83.04792},
	{"Stockholm, Sweden", 59.33217, 18.06243},
	{"Kingston, Jamaica", 17.99702, -76.79358},
	{"Nashville, TN", 36.16778, -86.77836},
	{"Berlin, Germany", 52.51607, 13.37698},
	{"Tokyo, Japan", 35.68956, 139.69170},
}

var nameWords = []string{
	"Silver", "Electric", "Midnight", "Velvet", "Static", "Golden", "Broken",
	"Neon", "Hollow", "Crimson", "Paper", "Wild", "Quiet", "Lunar", "Iron",
}

var nameNouns = []string{
	"Owls", "Harbor", "Machines", "Choir", "Foxes", "Parade", "Engines",
	"Orchestra", "Rivers", "Tides", "Kings", "Ghosts", "Lanterns", "Wolves",
}

var titleWords = []string{
	"Love", "Night", "Road", "Fire", "Heart", "Rain", "Dream", "Blue", "Home",
	"Summer", "Shadow", "Light", "Dance", "Gold", "Ocean", "Time", "Street",
}

// CatalogGenerator generates artists and the songs they recorded.
type CatalogGenerator struct {
	g       *gen.Generator
	artists []Artist
	n       uint64
}

// NewCatalogGenerator gets a CatalogGenerator which draws songs from
// numArtists artists. Using the same seed gives the same catalog.
func NewCatalogGenerator(seed int64, numArtists int) *CatalogGenerator {
	g := gen.NewGenerator(seed)
	artists := make([]Artist, numArtists)
	for i := range artists {
		a := Artist{
			ID:   "AR" + g.Hash(uint64(i)<<32|1, 16),
			Name: nameWords[g.Intn(len(nameWords))] + " " + nameNouns[g.Intn(len(nameNouns))],
		}
		if g.Float64() >= 0.4 {
			p := places[g.Intn(len(places))]
			a.Location = p.name
			if g.Float64() < 0.7 {
				lat, lon := p.lat, p.lon
				a.Latitude, a.Longitude = &lat, &lon
			}
		}
		artists[i] = a
	}
	return &CatalogGenerator{g: g, artists: artists}
}

// Artists returns every artist songs are drawn from.
func (c *CatalogGenerator) Artists() []Artist {
	return c.artists
}

// Song generates the next song. Popular artists record more songs.
func (c *CatalogGenerator) Song() *Song {
	n := c.n
	c.n++
	a := c.artists[c.g.Uint64(len(c.artists))]
	title := titleWords[c.g.Intn(len(titleWords))]
	if c.g.Float64() < 0.6 {
		title += " " + titleWords[c.g.Intn(len(titleWords))]
	}
	year := 0
	if c.g.Float64() < 0.5 {
		year = 1960 + c.g.Intn(60)
	}
	return &Song{
		NumSongs:        1,
		ArtistID:        a.ID,
		ArtistLatitude:  a.Latitude,
		ArtistLongitude: a.Longitude,
		ArtistLocation:  a.Location,
		ArtistName:      a.Name,
		SongID:          "SO" + c.g.Hash(n<<32|2, 16),
		Title:           title,
		Duration:        math.Round((120+c.g.Float64()*300)*100000) / 100000,
		Year:            year,
		TrackID:         "TR" + c.g.Hash(n<<32|3, 16),
	}
}

// Path returns where the song is stored relative to the dataset root, using
// the third to fifth characters of the track id as directories.
func (s *Song) Path() string {
	t := s.TrackID
	return fmt.Sprintf("song_data/%c/%c/%c/%s.json", t[2], t[3], t[4], t)
}
