// Package etl holds the configuration and entry points of the sparkify
// commands. Each Main is a plain struct whose fields become command line
// flags.
package etl

import (
	"context"
	"io"
	"io/ioutil"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pilosa/sparkify"
	"github.com/pilosa/sparkify/aws/s3"
	"github.com/pilosa/sparkify/boltdb"
	"github.com/pilosa/sparkify/file"
	"github.com/pilosa/sparkify/geohash"
	"github.com/pilosa/sparkify/leveldb"
	"github.com/pilosa/sparkify/parquet"
	"github.com/pilosa/sparkify/promstat"
	"github.com/pilosa/sparkify/termstat"
	"github.com/pkg/errors"
)

// Main contains the configuration for a run of the pipeline.
type Main struct {
	Input         string   `help:"Base location of song_data and log_data. A local path, file:// or s3:// location."`
	Output        string   `help:"Base location the tables are written under. A local path, file:// or s3:// location."`
	SongGlob      string   `help:"Pattern matching song data objects, relative to the input."`
	LogGlob       string   `help:"Pattern matching log data objects, relative to the input."`
	Region        string   `help:"AWS region to use for s3 locations."`
	Endpoint      string   `help:"S3 compatible endpoint to use instead of AWS."`
	Concurrency   int      `help:"Number of input objects decoded at once."`
	RowsPerFile   int      `help:"Maximum rows per Parquet file. 0 writes one file per partition."`
	BadRecords    string   `help:"What to do with records that don't match the schema: 'fail' or 'skip'."`
	DropUnmatched bool     `help:"Leave song plays which match no catalog song out of the songplays table."`
	IndexType     string   `help:"Where to keep the catalog index: 'mem', 'bolt' or 'leveldb'."`
	IndexPath     string   `help:"File (bolt) or directory (leveldb) for the catalog index. An index already there is replaced; a non-empty directory holding anything else is refused. Blank uses a temporary location."`
	Geohash       bool     `help:"Add a geohash column to the artists table."`
	LogPath       string   `help:"Log to this file instead of stderr."`
	LogFormat     string   `help:"Log format: 'text', 'json' or 'std'."`
	Verbose       bool     `help:"Enable debug logging."`
	Stats         string   `help:"Stats collector: 'none', 'term' or 'prom'."`
	PushGateway   string   `help:"Prometheus Pushgateway URL metrics are pushed to when Stats is 'prom'."`
	Stages        []string `help:"Stages to run, in order: 'catalog', 'activity'."`

	stderr   io.Writer
	s3Client s3iface.S3API
}

// NewMain gets a new Main with the default configuration.
func NewMain() *Main {
	return &Main{
		Input:       "data",
		Output:      "output",
		SongGlob:    sparkify.DefaultSongGlob,
		LogGlob:     sparkify.DefaultLogGlob,
		Region:      "us-west-2",
		Concurrency: 4,
		BadRecords:  "fail",
		IndexType:   "mem",
		LogFormat:   "text",
		Stats:       "none",
		Stages:      []string{sparkify.StageCatalog, sparkify.StageActivity},
		stderr:      os.Stderr,
	}
}

// SetStderr sets where logs and terminal stats go when LogPath is blank.
func (m *Main) SetStderr(w io.Writer) {
	m.stderr = w
}

// Run runs the configured stages.
func (m *Main) Run() error {
	ctx := context.Background()
	start := time.Now()

	logger, closeLog, err := m.logger()
	if err != nil {
		return errors.Wrap(err, "setting up logging")
	}
	defer closeLog()

	stats, finishStats, err := m.statter()
	if err != nil {
		return errors.Wrap(err, "setting up stats")
	}
	defer func() {
		if ferr := finishStats(ctx); ferr != nil {
			logger.Printf("finishing stats: %v", ferr)
		}
	}()

	policy, err := sparkify.ParseBadRecordPolicy(m.BadRecords)
	if err != nil {
		return err
	}
	storage, sink, err := m.storage(logger)
	if err != nil {
		return err
	}
	newIndex, err := m.index()
	if err != nil {
		return err
	}
	opts := []sparkify.SessionOption{
		sparkify.OptSessionStorage(storage),
		sparkify.OptSessionSink(sink),
		sparkify.OptSessionLogger(logger),
		sparkify.OptSessionStatter(stats),
		sparkify.OptSessionConcurrency(m.Concurrency),
		sparkify.OptSessionGlobs(m.SongGlob, m.LogGlob),
		sparkify.OptSessionBadRecords(policy),
		sparkify.OptSessionDropUnmatched(m.DropUnmatched),
		sparkify.OptSessionIndex(newIndex),
	}
	if m.Geohash {
		opts = append(opts, sparkify.OptSessionArtistTransformer(geohash.NewTransformer()))
	}
	sess, err := sparkify.NewSession(opts...)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}

	for _, stage := range m.Stages {
		switch strings.TrimSpace(stage) {
		case sparkify.StageCatalog:
			err = sparkify.ProcessSongData(ctx, sess, m.Input, m.Output)
		case sparkify.StageActivity:
			err = sparkify.ProcessLogData(ctx, sess, m.Input, m.Output)
		default:
			err = errors.Errorf("unknown stage '%s', must be '%s' or '%s'", stage, sparkify.StageCatalog, sparkify.StageActivity)
		}
		if err != nil {
			return errors.Wrapf(err, "running %s stage", stage)
		}
	}
	logger.Printf("done in %v", time.Since(start))
	return nil
}

func (m *Main) logger() (sparkify.Logger, func(), error) {
	out := m.stderr
	closeLog := func() {}
	if m.LogPath != "" {
		f, err := os.OpenFile(m.LogPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening log file")
		}
		out, closeLog = f, func() { f.Close() }
	}
	if out == nil {
		out = ioutil.Discard
	}
	switch m.LogFormat {
	case "json":
		return sparkify.NewZeroLogger(out, m.Verbose, false), closeLog, nil
	case "text", "":
		return sparkify.NewZeroLogger(out, m.Verbose, true), closeLog, nil
	case "std":
		l := log.New(out, "", log.LstdFlags)
		if m.Verbose {
			return sparkify.VerboseLogger{Logger: l}, closeLog, nil
		}
		return sparkify.StdLogger{Logger: l}, closeLog, nil
	}
	closeLog()
	return nil, nil, errors.Errorf("unknown log format '%s'", m.LogFormat)
}

func (m *Main) statter() (sparkify.Statter, func(context.Context) error, error) {
	switch m.Stats {
	case "none", "":
		return sparkify.NopStatter{}, func(context.Context) error { return nil }, nil
	case "term":
		out := m.stderr
		if out == nil {
			out = ioutil.Discard
		}
		c := termstat.NewCollector(out, 2*time.Second)
		return c, func(context.Context) error { return c.Close() }, nil
	case "prom":
		c := promstat.NewCollector()
		return c, func(ctx context.Context) error {
			if m.PushGateway == "" {
				return nil
			}
			return c.Push(ctx, m.PushGateway, "sparkify")
		}, nil
	}
	return nil, nil, errors.Errorf("unknown stats collector '%s'", m.Stats)
}

// client gets the S3 client, creating it on first use.
func (m *Main) client() (s3iface.S3API, error) {
	if m.s3Client == nil {
		c, err := s3.NewClient(m.Region, m.Endpoint)
		if err != nil {
			return nil, errors.Wrap(err, "getting s3 client")
		}
		m.s3Client = c
	}
	return m.s3Client, nil
}

func (m *Main) usesS3() bool {
	return s3.IsScheme(sparkify.Scheme(m.Input)) || s3.IsScheme(sparkify.Scheme(m.Output))
}

func (m *Main) storage(logger sparkify.Logger) (sparkify.Storage, sparkify.Sink, error) {
	sinkOpts := []parquet.SinkOption{
		parquet.OptSinkRowsPerFile(m.RowsPerFile),
		parquet.OptSinkLogger(logger),
	}
	local, err := parquet.NewLocalSink(sinkOpts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating local sink")
	}
	storage := sparkify.StorageMux{"": file.Storage{}, "file": file.Storage{}}
	sink := sparkify.SinkMux{"": local, "file": local}
	if m.usesS3() {
		client, err := m.client()
		if err != nil {
			return nil, nil, err
		}
		s3Sink, err := parquet.NewS3Sink(client, sinkOpts...)
		if err != nil {
			return nil, nil, errors.Wrap(err, "creating s3 sink")
		}
		for _, scheme := range s3.Schemes {
			storage[scheme] = s3.NewStorage(client)
			sink[scheme] = s3Sink
		}
	}
	return storage, sink, nil
}

func (m *Main) index() (func() (sparkify.CatalogIndex, error), error) {
	switch m.IndexType {
	case "mem", "":
		return func() (sparkify.CatalogIndex, error) { return sparkify.NewMemIndex(), nil }, nil
	case "bolt":
		return func() (sparkify.CatalogIndex, error) {
			if m.IndexPath != "" {
				return boltdb.NewIndex(m.IndexPath)
			}
			f, err := ioutil.TempFile("", "sparkify-index-*.db")
			if err != nil {
				return nil, errors.Wrap(err, "getting temp file")
			}
			f.Close()
			return boltdb.NewIndex(f.Name(), boltdb.OptIndexRemoveOnClose())
		}, nil
	case "leveldb":
		return func() (sparkify.CatalogIndex, error) {
			if m.IndexPath != "" {
				return leveldb.NewIndex(m.IndexPath)
			}
			dir, err := ioutil.TempDir("", "sparkify-index")
			if err != nil {
				return nil, errors.Wrap(err, "getting temp dir")
			}
			return leveldb.NewIndex(dir, leveldb.OptIndexRemoveOnClose())
		}, nil
	}
	return nil, errors.Errorf("unknown index type '%s', must be 'mem', 'bolt' or 'leveldb'", m.IndexType)
}
