package tracker

import (
	"errors"
	"fmt"
)

// ErrMigrationNotFound indicates no record exists for the given migration id.
var ErrMigrationNotFound = errors.New("migration not found in tracking table")

// ErrStore is matched by every StoreError.
var ErrStore = errors.New("tracking table operation failed")

// Operation names carried by StoreError.
const (
	OpEnsureTable = "ensure table"
	OpList        = "list applied"
	OpInsert      = "insert"
	OpRemove      = "remove"
	OpChecksum    = "get checksum"
)

// StoreError wraps a failed read or write against the tracking table.
type StoreError struct {
	Op    string
	ID    string // migration id, empty for table-wide operations
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s on %s: %v", e.Op, e.ID, e.Table, e.Err)
	}

	return fmt.Sprintf("%s on %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports whether target is ErrStore.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}
