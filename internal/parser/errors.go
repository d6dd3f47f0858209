package parser

import (
	"fmt"
	"strings"
)

// Attempt records why one encoding was rejected.
type Attempt struct {
	Encoding string
	Err      error
}

// EncodingError is returned when no encoding in the ladder could both decode
// and parse the input.
type EncodingError struct {
	Path     string
	Attempts []Attempt
}

func (e *EncodingError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Encoding, a.Err))
	}
	return fmt.Sprintf("read %s: no encoding succeeded (%s)", e.Path, strings.Join(parts, "; "))
}

// Unwrap exposes the last attempt's cause.
func (e *EncodingError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}
