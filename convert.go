package sparkify

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// The converters below accept the value types produced by decoding JSON into
// an interface{} (with or without json.Decoder.UseNumber) plus Go's integer
// types, and refuse everything else. A string is never parsed as a number and
// a number is never formatted as a string.

func toString(val interface{}) (string, error) {
	switch vt := val.(type) {
	case string:
		return vt, nil
	case []byte:
		return string(vt), nil
	default:
		return "", errors.Errorf("couldn't convert %v of %[1]T to string", vt)
	}
}

func toInt64(val interface{}) (int64, error) {
	switch vt := val.(type) {
	case json.Number:
		i, err := vt.Int64()
		if err != nil {
			return 0, errors.Errorf("couldn't convert %v to an integer", vt)
		}
		return i, nil
	case float64:
		if vt != math.Trunc(vt) || vt >= math.MaxInt64 || vt < math.MinInt64 {
			return 0, errors.Errorf("couldn't convert %v to an integer", vt)
		}
		return int64(vt), nil
	case int:
		return int64(vt), nil
	case int32:
		return int64(vt), nil
	case int64:
		return vt, nil
	case uint32:
		return int64(vt), nil
	default:
		return 0, errors.Errorf("couldn't convert %v of %[1]T to int64", vt)
	}
}

func toFloat64(val interface{}) (float64, error) {
	switch vt := val.(type) {
	case json.Number:
		f, err := vt.Float64()
		if err != nil {
			return 0, errors.Errorf("couldn't convert %v to a number", vt)
		}
		return f, nil
	case float64:
		return vt, nil
	case float32:
		return float64(vt), nil
	case int:
		return float64(vt), nil
	case int64:
		return float64(vt), nil
	default:
		return 0, errors.Errorf("couldn't convert %v of %[1]T to float64", vt)
	}
}

// fieldReader pulls typed fields out of a decoded JSON object and remembers
// the first problem it finds.
type fieldReader struct {
	m   map[string]interface{}
	err *SchemaError
}

func (r *fieldReader) fail(key, reason string) {
	if r.err == nil {
		r.err = &SchemaError{Field: key, Reason: reason}
	}
}

// lookup returns the value for key, treating JSON null like an absent key.
func (r *fieldReader) lookup(key string, required bool) (interface{}, bool) {
	v, ok := r.m[key]
	if !ok || v == nil {
		if required {
			r.fail(key, "missing")
		}
		return nil, false
	}
	return v, true
}

func (r *fieldReader) str(key string, required bool) string {
	v, ok := r.lookup(key, required)
	if !ok {
		return ""
	}
	s, err := toString(v)
	if err != nil {
		r.fail(key, err.Error())
	}
	return s
}

// id is like str, but the value must also be non-empty.
func (r *fieldReader) id(key string) string {
	s := r.str(key, true)
	if s == "" {
		r.fail(key, "empty")
	}
	return s
}

func (r *fieldReader) integer(key string, required bool) int64 {
	v, ok := r.lookup(key, required)
	if !ok {
		return 0
	}
	i, err := toInt64(v)
	if err != nil {
		r.fail(key, err.Error())
	}
	return i
}

// integer32 is like integer, but the value must also fit in an int32.
func (r *fieldReader) integer32(key string, required bool) int32 {
	i := r.integer(key, required)
	if i > math.MaxInt32 || i < math.MinInt32 {
		r.fail(key, fmt.Sprintf("%d is out of range for a 32 bit integer", i))
		return 0
	}
	return int32(i)
}

func (r *fieldReader) number(key string, required bool) float64 {
	v, ok := r.lookup(key, required)
	if !ok {
		return 0
	}
	f, err := toFloat64(v)
	if err != nil {
		r.fail(key, err.Error())
	}
	return f
}

func (r *fieldReader) optFloat(key string) *float64 {
	v, ok := r.lookup(key, false)
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		r.fail(key, err.Error())
		return nil
	}
	return &f
}
