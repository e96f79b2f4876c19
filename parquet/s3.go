package parquet

import (
	"bytes"
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pilosa/sparkify"
	s3store "github.com/pilosa/sparkify/aws/s3"
	"github.com/pkg/errors"
	"github.com/xitongsys/parquet-go-source/buffer"
)

// maxDeleteKeys is the most keys a single DeleteObjects request may carry.
const maxDeleteKeys = 1000

// S3Sink is a sparkify.Sink writing to S3.
//
// S3 has no rename, so a table is first uploaded under a staging prefix next
// to its location. Once every file is uploaded, the objects under the table
// location are deleted and the staged objects are copied into place. A
// failed upload leaves the previous contents untouched.
type S3Sink struct {
	config
	client s3iface.S3API
}

var _ sparkify.Sink = &S3Sink{}

// NewS3Sink gets an S3Sink which uses client for all requests.
func NewS3Sink(client s3iface.S3API, opts ...SinkOption) (*S3Sink, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &S3Sink{config: c, client: client}, nil
}

// WriteTable implements sparkify.Sink.
func (s *S3Sink) WriteTable(ctx context.Context, base string, t *sparkify.Table) error {
	bucket, prefix, err := s3store.Bucket(base)
	if err != nil {
		return err
	}
	dest := path.Join(prefix, t.Name) + "/"
	staging := path.Join(prefix, "_staging", t.Name) + "/"
	dest, staging = strings.TrimPrefix(dest, "/"), strings.TrimPrefix(staging, "/")

	if err := s.deletePrefix(ctx, bucket, staging); err != nil {
		return errors.Wrap(err, "removing leftover staging objects")
	}
	staged, err := s.stage(ctx, bucket, staging, t)
	if err != nil {
		if derr := s.deletePrefix(ctx, bucket, staging); derr != nil {
			s.log.Printf("removing staging objects: %v", derr)
		}
		return err
	}

	if err := s.deletePrefix(ctx, bucket, dest); err != nil {
		return errors.Wrap(err, "removing previous table")
	}
	for _, rel := range staged {
		_, err := s.client.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(bucket),
			Key:        aws.String(dest + rel),
			CopySource: aws.String(url.PathEscape(bucket + "/" + staging + rel)),
		})
		if err != nil {
			return errors.Wrapf(err, "copying %s into place", rel)
		}
	}
	return errors.Wrap(s.deletePrefix(ctx, bucket, staging), "removing staging objects")
}

func (s *S3Sink) stage(ctx context.Context, bucket, staging string, t *sparkify.Table) ([]string, error) {
	var staged []string
	for _, f := range s.layout(t) {
		bf := buffer.NewBufferFile()
		if err := s.encode(bf, t.Proto, f.rows); err != nil {
			return nil, errors.Wrapf(err, "encoding %s", f.rel)
		}
		_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(staging + f.rel),
			Body:   bytes.NewReader(bf.Bytes()),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "uploading %s", f.rel)
		}
		staged = append(staged, f.rel)
		s.log.Debugf("uploaded %d rows to s3://%s/%s%s", len(f.rows), bucket, staging, f.rel)
	}
	return staged, nil
}

func (s *S3Sink) deletePrefix(ctx context.Context, bucket, prefix string) error {
	keys, err := listKeys(ctx, s.client, bucket, prefix)
	if err != nil {
		return err
	}
	for len(keys) > 0 {
		n := len(keys)
		if n > maxDeleteKeys {
			n = maxDeleteKeys
		}
		ids := make([]*s3.ObjectIdentifier, n)
		for i, k := range keys[:n] {
			ids[i] = &s3.ObjectIdentifier{Key: aws.String(k)}
		}
		out, err := s.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return errors.Wrap(err, "deleting objects")
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return errors.Errorf("deleting %s: %s", aws.StringValue(e.Key), aws.StringValue(e.Message))
		}
		keys = keys[n:]
	}
	return nil
}

func listKeys(ctx context.Context, client s3iface.S3API, bucket, prefix string) ([]string, error) {
	var keys []string
	err := client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	})
	return keys, errors.Wrapf(err, "listing %s", prefix)
}
