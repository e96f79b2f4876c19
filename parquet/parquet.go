// Package parquet writes sparkify tables as Parquet files in Hive style
// partition directories, and reads them back.
//
// A table location looks like
//
//	<base>/songplay_table/year=2018/month=11/part-00000.parquet
//
// Each partition holds one or more part files of at most RowsPerFile rows.
// Writing a table replaces everything previously stored under its location.
package parquet

import (
	"fmt"
	"path"

	"github.com/pilosa/sparkify"
	"github.com/pkg/errors"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// DefaultRowGroupSize is the default row group size in bytes.
const DefaultRowGroupSize = 128 * 1024 * 1024

// SinkOption is a functional option for the sinks in this package.
type SinkOption func(c *config) error

type config struct {
	rowsPerFile  int
	parallel     int64
	rowGroupSize int64
	log          sparkify.Logger
}

func newConfig(opts []SinkOption) (config, error) {
	c := config{
		parallel:     1,
		rowGroupSize: DefaultRowGroupSize,
		log:          sparkify.NopLogger{},
	}
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return c, errors.Wrap(err, "applying option")
		}
	}
	return c, nil
}

// OptSinkRowsPerFile caps the number of rows in each part file. Zero means
// one file per partition.
func OptSinkRowsPerFile(n int) SinkOption {
	return func(c *config) error {
		if n < 0 {
			return errors.Errorf("rows per file must not be negative, got %d", n)
		}
		c.rowsPerFile = n
		return nil
	}
}

// OptSinkParallel sets the number of goroutines each Parquet writer uses to
// encode rows.
func OptSinkParallel(np int64) SinkOption {
	return func(c *config) error {
		if np < 1 {
			return errors.Errorf("parallelism must be at least 1, got %d", np)
		}
		c.parallel = np
		return nil
	}
}

// OptSinkRowGroupSize sets the row group size in bytes.
func OptSinkRowGroupSize(size int64) SinkOption {
	return func(c *config) error {
		c.rowGroupSize = size
		return nil
	}
}

// OptSinkLogger sets the logger the sink reports progress to.
func OptSinkLogger(l sparkify.Logger) SinkOption {
	return func(c *config) error {
		c.log = l
		return nil
	}
}

// partFile is one file of a table layout.
type partFile struct {
	// rel is the slash separated path relative to the table location.
	rel  string
	rows []interface{}
}

// PartName returns the name of the i'th part file of a partition.
func PartName(i int) string {
	return fmt.Sprintf("part-%05d.parquet", i)
}

// layout splits t into files. Every partition gets at least one file, so an
// unpartitioned empty table is still written as a single file with no rows.
func (c config) layout(t *sparkify.Table) []partFile {
	var files []partFile
	for _, p := range t.Partitions {
		dir := t.Path(p)
		rows := p.Rows
		for i := 0; i == 0 || len(rows) > 0; i++ {
			n := len(rows)
			if c.rowsPerFile > 0 && n > c.rowsPerFile {
				n = c.rowsPerFile
			}
			files = append(files, partFile{rel: path.Join(dir, PartName(i)), rows: rows[:n]})
			rows = rows[n:]
		}
	}
	return files
}

// encode writes rows shaped like proto to pf and closes the writer.
func (c config) encode(pf source.ParquetFile, proto interface{}, rows []interface{}) error {
	pw, err := writer.NewParquetWriter(pf, proto, c.parallel)
	if err != nil {
		return errors.Wrap(err, "getting parquet writer")
	}
	pw.RowGroupSize = c.rowGroupSize
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}
	if err := pw.WriteStop(); err != nil {
		return errors.Wrap(err, "finishing parquet file")
	}
	return nil
}
