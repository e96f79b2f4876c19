// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package s3 reads input objects from Amazon S3.
package s3

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pilosa/sparkify"
	"github.com/pkg/errors"
)

// Schemes are the location schemes that refer to S3.
var Schemes = []string{"s3", "s3a", "s3n"}

// Storage is a sparkify.Storage which lists and reads objects from S3. Base
// locations look like "s3://bucket/prefix".
type Storage struct {
	client s3iface.S3API
}

var _ sparkify.Storage = &Storage{}

// NewStorage gets a Storage which uses client for all requests.
func NewStorage(client s3iface.S3API) *Storage {
	return &Storage{client: client}
}

// RawSource implements sparkify.Storage. Objects are listed once, filtered by
// pattern and handed out in key order.
func (s *Storage) RawSource(ctx context.Context, base, pattern string) (sparkify.RawSource, error) {
	bucket, prefix, err := Bucket(base)
	if err != nil {
		return nil, err
	}
	full := strings.TrimPrefix(path.Join(prefix, pattern), "/")
	if _, err := path.Match(full, ""); err != nil {
		return nil, errors.Wrapf(err, "bad pattern %s", pattern)
	}

	var keys []string
	err = s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(StaticPrefix(full)),
	}, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			if ok, _ := path.Match(full, key); ok {
				keys = append(keys, key)
			}
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing objects in %s", bucket)
	}
	if len(keys) == 0 {
		return nil, errors.Wrapf(sparkify.ErrNoInput, "%s under %s", pattern, base)
	}
	sort.Strings(keys)

	idx := uint64(0)
	return &RawSource{
		ctx:    ctx,
		client: s.client,
		bucket: bucket,
		prefix: prefix,
		keys:   keys,
		objIdx: &idx,
	}, nil
}

// Bucket splits an S3 location into its bucket and key prefix.
func Bucket(loc string) (bucket, prefix string, err error) {
	scheme, bucket, prefix := sparkify.SplitLocation(loc)
	if !IsScheme(scheme) {
		return "", "", errors.Wrapf(sparkify.ErrUnknownScheme, "%s is not an S3 location", loc)
	}
	if bucket == "" {
		return "", "", errors.Errorf("no bucket in %s", loc)
	}
	return bucket, prefix, nil
}

// IsScheme reports whether scheme refers to S3.
func IsScheme(scheme string) bool {
	for _, s := range Schemes {
		if s == scheme {
			return true
		}
	}
	return false
}

// StaticPrefix returns the part of a glob pattern before the first path
// element containing a meta character.
func StaticPrefix(pattern string) string {
	i := strings.IndexAny(pattern, `*?[\`)
	if i < 0 {
		return pattern
	}
	return pattern[:strings.LastIndex(pattern[:i], "/")+1]
}

// RawSource hands out readers for a fixed list of S3 objects. It is safe for
// concurrent use.
type RawSource struct {
	ctx    context.Context
	client s3iface.S3API
	bucket string
	prefix string
	keys   []string
	objIdx *uint64
}

type objReader struct {
	name string
	body io.ReadCloser
}

func (o *objReader) Read(buf []byte) (n int, err error) {
	return o.body.Read(buf)
}

func (o *objReader) Close() error {
	return o.body.Close()
}

func (o *objReader) Name() string {
	return o.name
}

// NextReader implements sparkify.RawSource. Object names are keys relative to
// the base prefix.
func (rs *RawSource) NextReader() (sparkify.NamedReadCloser, error) {
	idx := atomic.AddUint64(rs.objIdx, 1) - 1
	if idx >= uint64(len(rs.keys)) {
		return nil, io.EOF
	}
	key := rs.keys[idx]

	result, err := rs.client.GetObjectWithContext(rs.ctx, &s3.GetObjectInput{
		Bucket: aws.String(rs.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %v", key)
	}
	name := key
	if rs.prefix != "" {
		name = strings.TrimPrefix(key, rs.prefix+"/")
	}
	return &objReader{name: name, body: result.Body}, nil
}
