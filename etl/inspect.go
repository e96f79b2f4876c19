package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pilosa/sparkify"
	"github.com/pilosa/sparkify/aws/s3"
	"github.com/pilosa/sparkify/parquet"
	"github.com/pkg/errors"
)

// InspectMain contains the configuration for printing the tables of a
// previous run.
type InspectMain struct {
	Output   string   `help:"Base location the tables were written under."`
	Tables   []string `help:"Tables to print."`
	Limit    int      `help:"Maximum rows printed per table. 0 prints only the file summary."`
	Region   string   `help:"AWS region to use for s3 locations."`
	Endpoint string   `help:"S3 compatible endpoint to use instead of AWS."`

	stdout   io.Writer
	s3Client s3iface.S3API
}

// NewInspectMain gets a new InspectMain with the default configuration.
func NewInspectMain() *InspectMain {
	return &InspectMain{
		Output: "output",
		Tables: []string{
			sparkify.SongTableName,
			sparkify.ArtistTableName,
			sparkify.UserTableName,
			sparkify.TimeTableName,
			sparkify.SongPlayTableName,
		},
		Limit:  10,
		Region: "us-west-2",
		stdout: os.Stdout,
	}
}

// SetStdout sets where the tables are printed.
func (m *InspectMain) SetStdout(w io.Writer) {
	m.stdout = w
}

// Run prints each table's part files with their row counts, followed by up
// to Limit rows encoded as JSON.
func (m *InspectMain) Run() error {
	ctx := context.Background()
	if s3.IsScheme(sparkify.Scheme(m.Output)) && m.s3Client == nil {
		c, err := s3.NewClient(m.Region, m.Endpoint)
		if err != nil {
			return errors.Wrap(err, "getting s3 client")
		}
		m.s3Client = c
	}
	r := parquet.NewReader(m.s3Client)
	enc := json.NewEncoder(m.stdout)
	for _, table := range m.Tables {
		files, err := r.Files(ctx, m.Output, table)
		if err != nil {
			return errors.Wrapf(err, "listing %s", table)
		}
		var total int64
		for _, f := range files {
			n, err := r.FileRows(ctx, m.Output, table, f)
			if err != nil {
				return err
			}
			total += n
			fmt.Fprintf(m.stdout, "%s/%s: %d rows\n", table, f, n)
		}
		fmt.Fprintf(m.stdout, "%s: %d files, %d rows\n", table, len(files), total)

		left := m.Limit
		for _, f := range files {
			if left <= 0 {
				break
			}
			rows, err := r.ReadFile(ctx, m.Output, table, f, nil)
			if err != nil {
				return err
			}
			for _, row := range rows {
				if left <= 0 {
					break
				}
				if err := enc.Encode(row); err != nil {
					return errors.Wrap(err, "encoding row")
				}
				left--
			}
		}
	}
	return nil
}
