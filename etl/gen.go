package etl

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pilosa/sparkify"
	"github.com/pilosa/sparkify/aws/s3"
	"github.com/pilosa/sparkify/fake"
	"github.com/pilosa/sparkify/file"
	"github.com/pkg/errors"
)

// GenMain contains the configuration for generating a fake input dataset.
type GenMain struct {
	Output   string `help:"Base location song_data and log_data are written under. A local path, file:// or s3:// location."`
	Seed     int64  `help:"Random seed. The same seed gives the same dataset."`
	Artists  int    `help:"Number of artists in the catalog."`
	Songs    int    `help:"Number of songs in the catalog."`
	Users    int    `help:"Number of users producing activity."`
	Sessions int    `help:"Number of listening sessions."`
	Region   string `help:"AWS region to use for s3 locations."`
	Endpoint string `help:"S3 compatible endpoint to use instead of AWS."`

	s3Client s3iface.S3API
}

// NewGenMain gets a new GenMain with the default configuration.
func NewGenMain() *GenMain {
	d := fake.NewDataset(0)
	return &GenMain{
		Output:   "data",
		Seed:     d.Seed,
		Artists:  d.Artists,
		Songs:    d.Songs,
		Users:    d.Users,
		Sessions: d.Sessions,
		Region:   "us-west-2",
	}
}

// Run generates the dataset and writes it out.
func (m *GenMain) Run() error {
	d := fake.NewDataset(m.Seed)
	d.Artists, d.Songs, d.Users, d.Sessions = m.Artists, m.Songs, m.Users, m.Sessions

	if !s3.IsScheme(sparkify.Scheme(m.Output)) {
		base := file.Path(m.Output)
		return d.Write(func(rel string, data []byte) error {
			name := filepath.Join(base, filepath.FromSlash(rel))
			if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
				return err
			}
			return ioutil.WriteFile(name, data, 0644)
		})
	}

	bucket, prefix, err := s3.Bucket(m.Output)
	if err != nil {
		return err
	}
	if m.s3Client == nil {
		c, err := s3.NewClient(m.Region, m.Endpoint)
		if err != nil {
			return errors.Wrap(err, "getting s3 client")
		}
		m.s3Client = c
	}
	ctx := context.Background()
	return d.Write(func(rel string, data []byte) error {
		_, err := m.s3Client.PutObjectWithContext(ctx, &awss3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(strings.TrimPrefix(path.Join(prefix, rel), "/")),
			Body:   bytes.NewReader(data),
		})
		return err
	})
}
