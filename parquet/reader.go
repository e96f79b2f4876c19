package parquet

import (
	"context"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pilosa/sparkify"
	"github.com/pilosa/sparkify/file"
	s3store "github.com/pilosa/sparkify/aws/s3"
	"github.com/pkg/errors"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
)

// Reader reads tables written by the sinks in this package.
type Reader struct {
	client s3iface.S3API
}

// NewReader gets a Reader. client is only needed to read from S3 and may be
// nil otherwise.
func NewReader(client s3iface.S3API) *Reader {
	return &Reader{client: client}
}

// Files lists the part files of a table, as slash separated paths relative to
// the table location, in order.
func (r *Reader) Files(ctx context.Context, base, table string) ([]string, error) {
	var files []string
	if s3store.IsScheme(sparkify.Scheme(base)) {
		bucket, prefix, err := s3store.Bucket(base)
		if err != nil {
			return nil, err
		}
		if r.client == nil {
			return nil, errors.New("no S3 client")
		}
		dir := strings.TrimPrefix(path.Join(prefix, table)+"/", "/")
		keys, err := listKeys(ctx, r.client, bucket, dir)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			files = append(files, strings.TrimPrefix(k, dir))
		}
	} else {
		dir := filepath.Join(file.Path(base), table)
		err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return err
			}
			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "listing %s", dir)
		}
	}
	kept := files[:0]
	for _, f := range files {
		if strings.HasSuffix(f, ".parquet") {
			kept = append(kept, f)
		}
	}
	sort.Strings(kept)
	return kept, nil
}

func (r *Reader) open(ctx context.Context, base, table, rel string) (source.ParquetFile, error) {
	if !s3store.IsScheme(sparkify.Scheme(base)) {
		name := filepath.Join(file.Path(base), table, filepath.FromSlash(rel))
		pf, err := local.NewLocalFileReader(name)
		return pf, errors.Wrapf(err, "opening %s", name)
	}
	bucket, prefix, err := s3store.Bucket(base)
	if err != nil {
		return nil, err
	}
	if r.client == nil {
		return nil, errors.New("no S3 client")
	}
	key := strings.TrimPrefix(path.Join(prefix, table, rel), "/")
	out, err := r.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", key)
	}
	defer out.Body.Close()
	data, err := ioutil.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return buffer.NewBufferFileFromBytes(data), nil
}

// ReadFile reads every row of one part file. If proto is a pointer to a row
// struct, rows are returned as values of that struct. If proto is nil, the
// row type is built from the file's own schema.
func (r *Reader) ReadFile(ctx context.Context, base, table, rel string, proto interface{}) ([]interface{}, error) {
	pf, err := r.open(ctx, base, table, rel)
	if err != nil {
		return nil, err
	}
	defer pf.Close()
	pr, err := reader.NewParquetReader(pf, proto, 1)
	if err != nil {
		return nil, errors.Wrapf(err, "reading footer of %s", rel)
	}
	defer pr.ReadStop()
	num := int(pr.GetNumRows())
	if proto == nil {
		rows, err := pr.ReadByNumber(num)
		return rows, errors.Wrapf(err, "reading rows of %s", rel)
	}
	dst := reflect.New(reflect.SliceOf(reflect.TypeOf(proto).Elem()))
	dst.Elem().Set(reflect.MakeSlice(dst.Elem().Type(), num, num))
	if err := pr.Read(dst.Interface()); err != nil {
		return nil, errors.Wrapf(err, "reading rows of %s", rel)
	}
	rows := make([]interface{}, num)
	for i := range rows {
		rows[i] = dst.Elem().Index(i).Interface()
	}
	return rows, nil
}

// FileRows counts the rows of one part file from its footer.
func (r *Reader) FileRows(ctx context.Context, base, table, rel string) (int64, error) {
	pf, err := r.open(ctx, base, table, rel)
	if err != nil {
		return 0, err
	}
	defer pf.Close()
	pr, err := reader.NewParquetReader(pf, nil, 1)
	if err != nil {
		return 0, errors.Wrapf(err, "reading footer of %s", rel)
	}
	defer pr.ReadStop()
	return pr.GetNumRows(), nil
}
