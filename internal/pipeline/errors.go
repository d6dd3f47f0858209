package pipeline

import (
	"errors"
	"fmt"
)

// ErrSourceNotFound is wrapped by SourceError when the raw file is absent.
var ErrSourceNotFound = errors.New("source file not found")

// SourceError is a fatal failure to obtain the raw table.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SchemaError is a fatal failure caused by a required column.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column %q: %s", e.Column, e.Reason)
}

// IsFatal reports whether err should stop the dashboard from serving views.
func IsFatal(err error) bool {
	var se *SourceError
	var sch *SchemaError
	return errors.As(err, &se) || errors.As(err, &sch)
}
