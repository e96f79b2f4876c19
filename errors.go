package sparkify

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Error is a constant error type.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrNoInput is returned when a glob pattern matches no objects.
	ErrNoInput = Error("no input objects matched")

	// ErrUnknownScheme is returned for a location with a scheme that no
	// Storage or Sink is registered for.
	ErrUnknownScheme = Error("unknown location scheme")
)

// SchemaError describes a record which does not match the expected shape.
type SchemaError struct {
	// Object is the name of the object the record was read from.
	Object string
	// Index is the position of the record within Object.
	Index  int
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Object == "" {
		return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s#%d: field %q: %s", e.Object, e.Index, e.Field, e.Reason)
}

// IsSchemaError reports whether err, or the cause of err, is a *SchemaError.
func IsSchemaError(err error) bool {
	_, ok := errors.Cause(err).(*SchemaError)
	return ok
}

// BadRecordPolicy decides what happens to records which fail to parse.
type BadRecordPolicy int

const (
	// FailOnBadRecord aborts the stage on the first bad record.
	FailOnBadRecord BadRecordPolicy = iota
	// SkipBadRecords drops bad records, logging and counting each one.
	SkipBadRecords
)

// ParseBadRecordPolicy parses "fail" or "skip".
func ParseBadRecordPolicy(s string) (BadRecordPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail", "":
		return FailOnBadRecord, nil
	case "skip":
		return SkipBadRecords, nil
	default:
		return FailOnBadRecord, errors.Errorf("unknown bad record policy '%s', must be 'fail' or 'skip'", s)
	}
}

func (p BadRecordPolicy) String() string {
	if p == SkipBadRecords {
		return "skip"
	}
	return "fail"
}
