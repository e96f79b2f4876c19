package sparkify

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Default glob patterns for the two input datasets, relative to the input
// base.
const (
	DefaultSongGlob = "song_data/*/*/*/*.json"
	DefaultLogGlob  = "log_data/*/*/*.json"
)

// Stage names used in logs and stats.
const (
	StageCatalog  = "catalog"
	StageIndex    = "index"
	StageActivity = "activity"
)

// Session carries everything a stage needs to run. It is passed explicitly to
// each stage.
type Session struct {
	Storage Storage
	Sink    Sink
	Log     Logger
	Stats   Statter

	// Concurrency is the number of objects decoded at once.
	Concurrency int

	SongGlob string
	LogGlob  string

	BadRecords    BadRecordPolicy
	DropUnmatched bool

	// ArtistTransformers are applied in order to every artist row.
	ArtistTransformers []ArtistTransformer

	// NewIndex gets the empty catalog index used by the activity stage.
	NewIndex func() (CatalogIndex, error)
}

// SessionOption is a functional option for a Session.
type SessionOption func(s *Session) error

// OptSessionStorage sets the Storage input is read from.
func OptSessionStorage(st Storage) SessionOption {
	return func(s *Session) error {
		s.Storage = st
		return nil
	}
}

// OptSessionSink sets the Sink tables are written to.
func OptSessionSink(sink Sink) SessionOption {
	return func(s *Session) error {
		s.Sink = sink
		return nil
	}
}

// OptSessionLogger sets the session's Logger.
func OptSessionLogger(l Logger) SessionOption {
	return func(s *Session) error {
		s.Log = l
		return nil
	}
}

// OptSessionStatter sets the session's Statter.
func OptSessionStatter(st Statter) SessionOption {
	return func(s *Session) error {
		s.Stats = st
		return nil
	}
}

// OptSessionConcurrency sets the number of objects decoded at once.
func OptSessionConcurrency(n int) SessionOption {
	return func(s *Session) error {
		if n < 1 {
			return errors.Errorf("concurrency must be at least 1, got %d", n)
		}
		s.Concurrency = n
		return nil
	}
}

// OptSessionGlobs sets the glob patterns of the song and log datasets. Empty
// patterns leave the current ones in place.
func OptSessionGlobs(songGlob, logGlob string) SessionOption {
	return func(s *Session) error {
		if songGlob != "" {
			s.SongGlob = songGlob
		}
		if logGlob != "" {
			s.LogGlob = logGlob
		}
		return nil
	}
}

// OptSessionBadRecords sets what happens to records which fail to parse.
func OptSessionBadRecords(p BadRecordPolicy) SessionOption {
	return func(s *Session) error {
		s.BadRecords = p
		return nil
	}
}

// OptSessionDropUnmatched leaves song plays which match no catalog song out of
// the songplays table.
func OptSessionDropUnmatched(drop bool) SessionOption {
	return func(s *Session) error {
		s.DropUnmatched = drop
		return nil
	}
}

// OptSessionArtistTransformer adds a transformer applied to every artist row.
func OptSessionArtistTransformer(t ArtistTransformer) SessionOption {
	return func(s *Session) error {
		s.ArtistTransformers = append(s.ArtistTransformers, t)
		return nil
	}
}

// OptSessionIndex sets the constructor of the catalog index.
func OptSessionIndex(newIndex func() (CatalogIndex, error)) SessionOption {
	return func(s *Session) error {
		s.NewIndex = newIndex
		return nil
	}
}

// NewSession gets a Session with the given options applied. A Storage and a
// Sink are required.
func NewSession(opts ...SessionOption) (*Session, error) {
	s := &Session{
		Log:         NopLogger{},
		Stats:       NopStatter{},
		Concurrency: 1,
		SongGlob:    DefaultSongGlob,
		LogGlob:     DefaultLogGlob,
		NewIndex:    func() (CatalogIndex, error) { return NewMemIndex(), nil },
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}
	if s.Storage == nil {
		return nil, errors.New("session needs a Storage")
	}
	if s.Sink == nil {
		return nil, errors.New("session needs a Sink")
	}
	return s, nil
}

// Run runs the catalog stage and then the activity stage.
func Run(ctx context.Context, sess *Session, input, output string) error {
	if err := ProcessSongData(ctx, sess, input, output); err != nil {
		return errors.Wrap(err, "processing song data")
	}
	if err := ProcessLogData(ctx, sess, input, output); err != nil {
		return errors.Wrap(err, "processing log data")
	}
	return nil
}

// ProcessSongData reads the song catalog under input and writes the songs and
// artists tables under output.
func ProcessSongData(ctx context.Context, sess *Session, input, output string) error {
	start := time.Now()
	sess.Log.Printf("catalog stage: reading %s from %s", sess.SongGlob, input)

	var mu sync.Mutex
	var records []SongRecord
	err := sess.read(ctx, input, sess.SongGlob, StageCatalog, func(data interface{}) error {
		rec, err := ParseSongRecord(data)
		if err != nil {
			return err
		}
		mu.Lock()
		records = append(records, rec)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}

	songs := ExtractSongs(records)
	artists := ExtractArtists(records)
	for i := range artists {
		for _, t := range sess.ArtistTransformers {
			if err := t.TransformArtist(&artists[i]); err != nil {
				return errors.Wrapf(err, "transforming artist %s", artists[i].ArtistID)
			}
		}
	}
	sess.Log.Printf("catalog stage: %d records, %d songs, %d artists", len(records), len(songs), len(artists))

	if err := sess.write(ctx, output, SongTable(songs), ArtistTable(artists)); err != nil {
		return err
	}
	sess.Stats.Timing("stage.duration."+StageCatalog, time.Since(start), 1)
	return nil
}

// ProcessLogData reads the activity logs under input, builds a catalog index
// from the song data under the same input, and writes the users, time and
// songplays tables under output.
func ProcessLogData(ctx context.Context, sess *Session, input, output string) error {
	start := time.Now()
	idx, err := sess.NewIndex()
	if err != nil {
		return errors.Wrap(err, "opening catalog index")
	}
	defer func() {
		if err := idx.Close(); err != nil {
			sess.Log.Printf("closing catalog index: %v", err)
		}
	}()

	var mu sync.Mutex
	var records []LogRecord
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		sess.Log.Printf("activity stage: indexing %s from %s", sess.SongGlob, input)
		return sess.read(gctx, input, sess.SongGlob, StageIndex, func(data interface{}) error {
			rec, err := ParseSongRecord(data)
			if err != nil {
				return err
			}
			return errors.Wrapf(idx.Add(rec), "indexing song %s", rec.SongID)
		})
	})
	eg.Go(func() error {
		sess.Log.Printf("activity stage: reading %s from %s", sess.LogGlob, input)
		return sess.read(gctx, input, sess.LogGlob, StageActivity, func(data interface{}) error {
			rec, err := ParseLogRecord(data)
			if err != nil {
				return err
			}
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	plays := FilterPlays(records)
	users := ExtractUsers(plays)
	times := ExtractTimes(plays)
	songplays, js, err := ExtractSongPlays(plays, idx, sess.DropUnmatched)
	if err != nil {
		return errors.Wrap(err, "joining song plays")
	}
	sess.Stats.Count("songplays.unmatched", int64(js.Unmatched), 1)
	sess.Log.Printf("activity stage: %d events, %d plays, %d matched, %d unmatched, %d dropped",
		len(records), len(plays), js.Matched, js.Unmatched, js.Dropped)

	if err := sess.write(ctx, output, UserTable(users), TimeTable(times), SongPlayTable(songplays)); err != nil {
		return err
	}
	sess.Stats.Timing("stage.duration."+StageActivity, time.Since(start), 1)
	return nil
}

// recordFunc handles one decoded document. It returns a *SchemaError for
// documents which don't have the expected shape.
type recordFunc func(data interface{}) error

// read decodes every object matching pattern under base and hands each
// document to fn. Objects are decoded by sess.Concurrency goroutines, so fn
// must be safe for concurrent use.
func (s *Session) read(ctx context.Context, base, pattern, stage string, fn recordFunc) error {
	rs, err := s.Storage.RawSource(ctx, base, pattern)
	if err != nil {
		return errors.Wrapf(err, "listing %s under %s", pattern, base)
	}
	var read, skipped int64
	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.Concurrency; i++ {
		eg.Go(func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := rs.NextReader()
				if err == io.EOF {
					return nil
				} else if err != nil {
					return errors.Wrap(err, "getting next reader")
				}
				err = s.readObject(r, fn, &read, &skipped)
				r.Close()
				if err != nil {
					return err
				}
			}
		})
	}
	err = eg.Wait()
	s.Stats.Count("records.read."+stage, read, 1)
	s.Stats.Count("records.skipped."+stage, skipped, 1)
	if skipped > 0 {
		s.Log.Printf("%s: skipped %d bad records", stage, skipped)
	}
	return err
}

func (s *Session) readObject(r NamedReadCloser, fn recordFunc, read, skipped *int64) error {
	src := NewJSONSource(r)
	for i := 0; ; i++ {
		data, err := src.Record()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrapf(err, "reading %s", r.Name())
		}
		atomic.AddInt64(read, 1)
		err = fn(data)
		if se, ok := errors.Cause(err).(*SchemaError); ok {
			se.Object, se.Index = r.Name(), i
			if s.BadRecords == SkipBadRecords {
				atomic.AddInt64(skipped, 1)
				s.Log.Debugf("skipping bad record: %v", se)
				continue
			}
			return se
		}
		if err != nil {
			return err
		}
	}
}

// write hands every table to the sink at once.
func (s *Session) write(ctx context.Context, output string, tables ...*Table) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, t := range tables {
		t := t
		eg.Go(func() error {
			if err := s.Sink.WriteTable(ctx, output, t); err != nil {
				return errors.Wrapf(err, "writing %s", t.Name)
			}
			s.Stats.Count("rows.written."+t.Name, int64(t.Len()), 1)
			s.Log.Printf("wrote %d rows in %d partitions to %s", t.Len(), len(t.Partitions), t.Name)
			return nil
		})
	}
	return eg.Wait()
}
