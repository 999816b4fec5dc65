package migration

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat indicates a malformed migration file.
var ErrInvalidFormat = errors.New("invalid migration file")

// ErrDuplicateID indicates two migrations share the same numeric id.
var ErrDuplicateID = errors.New("duplicate migration id")

// ErrFileExists indicates a scaffolded migration would overwrite an existing file.
var ErrFileExists = errors.New("migration file already exists")

// FormatError describes why a migration file could not be loaded.
// It matches ErrInvalidFormat with errors.Is.
type FormatError struct {
	Filename string
	Reason   string
	Err      error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("migration file %s: %s: %v", e.Filename, e.Reason, e.Err)
	}

	return fmt.Sprintf("migration file %s: %s", e.Filename, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is reports whether target is ErrInvalidFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

func formatErr(filename, reason string, err error) *FormatError {
	return &FormatError{Filename: filename, Reason: reason, Err: err}
}
