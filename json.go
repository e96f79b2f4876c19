package sparkify

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// JSONSource is a Source for reading a stream of JSON documents. The
// documents may be one per line or simply concatenated.
type JSONSource struct {
	dec *json.Decoder
}

// NewJSONSource gets a new JSONSource which will decode from the given reader.
// Numbers are decoded as json.Number so that integers are never rounded
// through float64.
func NewJSONSource(r io.Reader) *JSONSource {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &JSONSource{dec: dec}
}

// Record implements Source. It returns the next JSON document that can be
// decoded from the reader, which is a map[string]interface{} for any JSON
// object.
func (s *JSONSource) Record() (interface{}, error) {
	var rec interface{}
	err := s.dec.Decode(&rec)
	if err == io.EOF {
		return nil, io.EOF
	} else if err != nil {
		return nil, errors.Wrap(err, "decoding json")
	}
	return rec, nil
}
