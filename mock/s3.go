package mock

import (
	"bytes"
	"io/ioutil"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3 is an in-memory stand in for the parts of the S3 API that sparkify uses.
// Calling any other method panics.
type S3 struct {
	s3iface.S3API

	// PageSize limits the number of keys per listing page. Zero means 1000.
	PageSize int
	// FailPut, if set, is called before every put and fails it when it
	// returns an error.
	FailPut func(bucket, key string) error

	mu      sync.Mutex
	objects map[string]map[string][]byte
}

// NewS3 gets an empty S3 with the given buckets.
func NewS3(buckets ...string) *S3 {
	m := &S3{objects: make(map[string]map[string][]byte)}
	for _, b := range buckets {
		m.objects[b] = make(map[string][]byte)
	}
	return m
}

// PutBytes stores an object.
func (m *S3) PutBytes(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects[bucket] == nil {
		m.objects[bucket] = make(map[string][]byte)
	}
	m.objects[bucket][key] = data
}

// Objects returns a copy of every object in bucket, by key.
func (m *S3) Objects(bucket string) map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	objs := make(map[string][]byte, len(m.objects[bucket]))
	for k, v := range m.objects[bucket] {
		objs[k] = v
	}
	return objs
}

func (m *S3) bucket(name *string) (map[string][]byte, error) {
	b, ok := m.objects[aws.StringValue(name)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchBucket, "no such bucket "+aws.StringValue(name), nil)
	}
	return b, nil
}

// ListObjectsV2PagesWithContext implements s3iface.S3API.
func (m *S3) ListObjectsV2PagesWithContext(ctx aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, opts ...request.Option) error {
	m.mu.Lock()
	b, err := m.bucket(in.Bucket)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	prefix := aws.StringValue(in.Prefix)
	keys := make([]string, 0)
	for k := range b {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	m.mu.Unlock()
	sort.Strings(keys)

	size := m.PageSize
	if size <= 0 {
		size = 1000
	}
	for start := 0; ; start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		page := &s3.ListObjectsV2Output{Name: in.Bucket, Prefix: in.Prefix}
		for _, k := range keys[start:end] {
			page.Contents = append(page.Contents, &s3.Object{Key: aws.String(k)})
		}
		last := end == len(keys)
		if !fn(page, last) || last {
			return nil
		}
	}
}

// GetObjectWithContext implements s3iface.S3API.
func (m *S3) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}
	data, ok := b[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key "+aws.StringValue(in.Key), nil)
	}
	return &s3.GetObjectOutput{
		Body:          ioutil.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

// PutObjectWithContext implements s3iface.S3API.
func (m *S3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	if m.FailPut != nil {
		if err := m.FailPut(aws.StringValue(in.Bucket), aws.StringValue(in.Key)); err != nil {
			return nil, err
		}
	}
	var data []byte
	if in.Body != nil {
		var err error
		if data, err = ioutil.ReadAll(in.Body); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}
	b[aws.StringValue(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

// CopyObjectWithContext implements s3iface.S3API. CopySource must be a URL
// escaped "bucket/key".
func (m *S3) CopyObjectWithContext(ctx aws.Context, in *s3.CopyObjectInput, opts ...request.Option) (*s3.CopyObjectOutput, error) {
	src, err := url.PathUnescape(aws.StringValue(in.CopySource))
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(strings.TrimPrefix(src, "/"), "/", 2)
	if len(parts) != 2 {
		return nil, awserr.New("InvalidArgument", "bad copy source "+src, nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	from, err := m.bucket(&parts[0])
	if err != nil {
		return nil, err
	}
	data, ok := from[parts[1]]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key "+parts[1], nil)
	}
	to, err := m.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}
	to[aws.StringValue(in.Key)] = data
	return &s3.CopyObjectOutput{}, nil
}

// DeleteObjectsWithContext implements s3iface.S3API.
func (m *S3) DeleteObjectsWithContext(ctx aws.Context, in *s3.DeleteObjectsInput, opts ...request.Option) (*s3.DeleteObjectsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}
	out := &s3.DeleteObjectsOutput{}
	for _, obj := range in.Delete.Objects {
		delete(b, aws.StringValue(obj.Key))
		out.Deleted = append(out.Deleted, &s3.DeletedObject{Key: obj.Key})
	}
	return out, nil
}
