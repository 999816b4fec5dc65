package executor

import (
	"errors"
	"fmt"

	"github.com/aqasim81/cql-migrate/internal/cql"
)

// ErrExecutionFailed is matched by every ExecutionError.
var ErrExecutionFailed = errors.New("statement execution failed")

// ExecutionError reports the statement that failed and why. Statements
// before it in the same script have already been applied; the store offers
// no multi-statement atomicity.
type ExecutionError struct {
	Index     int    // 0-based statement position within the script
	Statement string // full statement text
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing statement %d (%s): %v", e.Index+1, cql.Truncate(e.Statement, maxDisplayLen), e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Is reports whether target is ErrExecutionFailed.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecutionFailed
}
