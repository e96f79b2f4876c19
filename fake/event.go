package fake

import (
	"strconv"
	"strings"
	"time"

	"github.com/pilosa/sparkify/fake/gen"
)

// Event is one user-activity log document, shaped like the event simulator
// logs of the public dataset.
type Event struct {
	Artist        *string  `json:"artist"`
	Auth          string   `json:"auth"`
	FirstName     *string  `json:"firstName"`
	Gender        *string  `json:"gender"`
	ItemInSession int      `json:"itemInSession"`
	LastName      *string  `json:"lastName"`
	Length        *float64 `json:"length"`
	Level         string   `json:"level"`
	Location      *string  `json:"location"`
	Method        string   `json:"method"`
	Page          string   `json:"page"`
	Registration  *float64 `json:"registration"`
	SessionID     int      `json:"sessionId"`
	Song          *string  `json:"song"`
	Status        int      `json:"status"`
	TS            int64    `json:"ts"`
	UserAgent     *string  `json:"userAgent"`
	UserID        string   `json:"userId"`
}

// User is a generated listener.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Gender       string
	Level        string
	Location     string
	UserAgent    string
	Registration float64
}

var firstNames = []string{
	"Jacob", "Lily", "Kevin", "Chloe", "Ryan", "Tegan", "Jayden", "Kate",
	"Aleena", "Mohammad", "Layla", "Rylan", "Stefany", "Sara", "Matthew",
}

var lastNames = []string{
	"Klein", "Koch", "Arellano", "Cuevas", "Smith", "Levine", "Graves", "Harrell",
	"Kirby", "Rodriguez", "Griffin", "George", "White", "Johnson", "Jones",
}

var userAgents = []string{
	`"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_9_4) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/36.0.1985.143 Safari/537.36"`,
	`"Mozilla/5.0 (Windows NT 6.1; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/37.0.2062.103 Safari/537.36"`,
	`Mozilla/5.0 (Windows NT 6.1; WOW64; rv:31.0) Gecko/20100101 Firefox/31.0`,
	`"Mozilla/5.0 (iPhone; CPU iPhone OS 7_1_2 like Mac OS X) AppleWebKit/537.51.2 (KHTML, like Gecko) Version/7.0 Mobile/11D257 Safari/9537.53"`,
}

var otherPages = []string{"Home", "Settings", "Help", "About", "Save Settings", "Upgrade", "Downgrade", "Logout"}

// EventGenerator generates sessions of activity for a fixed set of users
// listening to songs from a catalog.
type EventGenerator struct {
	g       *gen.Generator
	users   []User
	songs   []*Song
	perm    *gen.PermutationGenerator
	now     time.Time
	session int
}

// NewEventGenerator gets an EventGenerator for numUsers users whose first
// session starts at start. Plays are drawn from songs.
func NewEventGenerator(seed int64, numUsers int, songs []*Song, start time.Time) *EventGenerator {
	g := gen.NewGenerator(seed)
	users := make([]User, numUsers)
	for i := range users {
		p := places[g.Intn(len(places))]
		gender := "F"
		if g.Intn(2) == 0 {
			gender = "M"
		}
		level := "free"
		if g.Float64() < 0.3 {
			level = "paid"
		}
		users[i] = User{
			ID:           strconv.Itoa(i + 2),
			FirstName:    firstNames[g.Intn(len(firstNames))],
			LastName:     lastNames[g.Intn(len(lastNames))],
			Gender:       gender,
			Level:        level,
			Location:     p.name,
			UserAgent:    userAgents[g.Intn(len(userAgents))],
			Registration: float64(start.Add(-time.Duration(g.Intn(1000)) * time.Hour).UnixNano() / int64(time.Millisecond)),
		}
	}
	var perm *gen.PermutationGenerator
	if len(songs) > 1 {
		perm = gen.NewPermutationGenerator(int64(len(songs)), 1+seed&0xff)
	}
	return &EventGenerator{g: g, users: users, songs: songs, perm: perm, now: start.UTC()}
}

// Session generates the events of one listening session. Most events are
// song plays. A small share of plays are of songs missing from the catalog,
// and artist names are sometimes spelled in a different case than the
// catalog's. Users occasionally change level during a session.
func (e *EventGenerator) Session() []*Event {
	e.session++
	u := &e.users[e.g.Uint64(len(e.users))]
	n := 1 + e.g.Intn(20)
	events := make([]*Event, 0, n)
	for i := 0; i < n; i++ {
		ev := &Event{
			Auth:          "Logged In",
			ItemInSession: i,
			Level:         u.Level,
			Method:        "PUT",
			Page:          "NextSong",
			SessionID:     e.session,
			Status:        200,
			TS:            e.now.UnixNano() / int64(time.Millisecond),
			UserID:        u.ID,
		}
		ev.FirstName, ev.LastName, ev.Gender = str(u.FirstName), str(u.LastName), str(u.Gender)
		ev.Location, ev.UserAgent = str(u.Location), str(u.UserAgent)
		reg := u.Registration
		ev.Registration = &reg

		switch r := e.g.Float64(); {
		case r < 0.15 || len(e.songs) == 0:
			ev.Page = otherPages[e.g.Intn(len(otherPages))]
			ev.Method = "GET"
			switch ev.Page {
			case "Upgrade":
				u.Level = "paid"
			case "Downgrade":
				u.Level = "free"
			}
			e.now = e.now.Add(time.Duration(1+e.g.Intn(30)) * time.Second)
		case r < 0.22:
			artist := nameWords[e.g.Intn(len(nameWords))] + " " + titleWords[e.g.Intn(len(titleWords))]
			song := titleWords[e.g.Intn(len(titleWords))] + " Forever"
			length := 200.0
			ev.Artist, ev.Song, ev.Length = &artist, &song, &length
			e.now = e.now.Add(200 * time.Second)
		default:
			s := e.songs[e.pick()]
			artist := s.ArtistName
			if e.g.Float64() < 0.1 {
				artist = strings.ToUpper(artist)
			}
			length := s.Duration
			ev.Artist, ev.Song, ev.Length = &artist, str(s.Title), &length
			e.now = e.now.Add(time.Duration(s.Duration * float64(time.Second)))
		}
		events = append(events, ev)
	}
	e.now = e.now.Add(time.Duration(10+e.g.Intn(600)) * time.Minute)
	return events
}

// pick chooses a song with a zipfian popularity that is not tied to the
// order of the catalog.
func (e *EventGenerator) pick() int {
	i := int64(e.g.Uint64(len(e.songs)))
	if e.perm == nil {
		return int(i)
	}
	return int(e.perm.Permute(i))
}

func str(s string) *string { return &s }
