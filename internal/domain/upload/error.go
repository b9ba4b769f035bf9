package upload

import (
	"fmt"
	"strings"

	"fileupload/internal/domain/constraint"
)

// ErrorKind classifies a per-file failure.
type ErrorKind string

const (
	ErrorTransport  ErrorKind = "TRANSPORT"
	ErrorFilesystem ErrorKind = "FILESYSTEM"
	ErrorConstraint ErrorKind = "CONSTRAINT"
)

// Error is the structured report for a file that was not persisted.
// Constraint is set for ErrorConstraint only.
type Error struct {
	Kind       ErrorKind
	Messages   []string
	File       *File
	Constraint constraint.Constraint
	Err        error
}

func (e *Error) Error() string {
	field := ""
	if e.File != nil {
		field = e.File.FieldName()
	}
	return fmt.Sprintf("%s error on field %q: %s", e.Kind, field, strings.Join(e.Messages, "; "))
}

func (e *Error) Unwrap() error { return e.Err }
