package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gocql/gocql"

	"github.com/aqasim81/cql-migrate/internal/cql"
)

const maxDisplayLen = 120

// ExecFunc runs a single CQL statement against the cluster.
type ExecFunc func(ctx context.Context, stmt string) error

// Executor runs migration scripts one statement at a time. It does not wrap
// a script in any transaction: if statement K fails, statements before K
// stay applied.
type Executor struct {
	session *gocql.Session
	logger  *slog.Logger
	exec    ExecFunc
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for dry-run and progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithExecFunc replaces the statement runner. Used by tests.
func WithExecFunc(fn ExecFunc) Option {
	return func(e *Executor) { e.exec = fn }
}

// New creates an Executor bound to session.
func New(session *gocql.Session, opts ...Option) *Executor {
	e := &Executor{session: session}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	if e.exec == nil {
		e.exec = e.execSession
	}

	return e
}

// Run splits script into statements and executes them in textual order.
// In dry-run mode each statement is logged and nothing is executed. The
// first failing statement stops the run with an *ExecutionError.
func (e *Executor) Run(ctx context.Context, script string, dryRun bool) error {
	stmts, err := cql.Split(script)
	if err != nil {
		return fmt.Errorf("splitting script: %w", err)
	}

	for _, stmt := range stmts {
		if dryRun {
			e.logger.Info("would execute", "statement", cql.Truncate(stmt.Text, maxDisplayLen))

			continue
		}

		e.logger.Debug("executing", "index", stmt.Index, "statement", cql.Truncate(stmt.Text, maxDisplayLen))

		if err := e.exec(ctx, stmt.Text); err != nil {
			return &ExecutionError{Index: stmt.Index, Statement: stmt.Text, Err: err}
		}
	}

	return nil
}

func (e *Executor) execSession(ctx context.Context, stmt string) error {
	return e.session.Query(stmt).WithContext(ctx).Exec()
}
