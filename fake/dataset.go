// Package fake generates song catalog and user activity datasets laid out
// like the public Sparkify data, for trying out and testing the pipeline.
package fake

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Dataset describes a dataset to generate. Using the same settings gives the
// same files on a given version of Go.
type Dataset struct {
	Seed     int64
	Artists  int
	Songs    int
	Users    int
	Sessions int
	// Start is the time of the first event.
	Start time.Time
}

// NewDataset gets a small Dataset starting in November 2018.
func NewDataset(seed int64) Dataset {
	return Dataset{
		Seed:     seed,
		Artists:  20,
		Songs:    60,
		Users:    10,
		Sessions: 40,
		Start:    time.Date(2018, time.November, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Generate builds the songs and the events of the dataset.
func (d Dataset) Generate() ([]*Song, []*Event, error) {
	if d.Artists < 1 || d.Users < 1 {
		return nil, nil, errors.New("need at least one artist and one user")
	}
	cg := NewCatalogGenerator(d.Seed, d.Artists)
	songs := make([]*Song, d.Songs)
	for i := range songs {
		songs[i] = cg.Song()
	}
	eg := NewEventGenerator(d.Seed+1, d.Users, songs, d.Start)
	var events []*Event
	for i := 0; i < d.Sessions; i++ {
		events = append(events, eg.Session()...)
	}
	return songs, events, nil
}

// Files generates the dataset and encodes it into files keyed by their slash
// separated path relative to the dataset root. Each song is stored in its own
// file under song_data and events are stored one per line in a file per day
// under log_data.
func (d Dataset) Files() (map[string][]byte, error) {
	songs, events, err := d.Generate()
	if err != nil {
		return nil, err
	}
	files := make(map[string][]byte, len(songs)+1)
	for _, s := range songs {
		data, err := json.Marshal(s)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding song %s", s.SongID)
		}
		files[s.Path()] = data
	}
	days := make(map[string]*bytes.Buffer)
	for _, ev := range events {
		day := time.Unix(0, ev.TS*int64(time.Millisecond)).UTC()
		name := day.Format("log_data/2006/01/2006-01-02-events.json")
		buf, ok := days[name]
		if !ok {
			buf = &bytes.Buffer{}
			days[name] = buf
		}
		data, err := json.Marshal(ev)
		if err != nil {
			return nil, errors.Wrap(err, "encoding event")
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	for name, buf := range days {
		files[name] = buf.Bytes()
	}
	return files, nil
}

// Write generates the dataset and hands every file to put, in path order.
func (d Dataset) Write(put func(rel string, data []byte) error) error {
	files, err := d.Files()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := put(name, files[name]); err != nil {
			return errors.Wrapf(err, "writing %s", name)
		}
	}
	return nil
}
