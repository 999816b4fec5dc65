// Package engine reconciles migration definitions against the tracking
// table and drives apply and rollback.
//
// Every operation reloads both sides from scratch; the engine keeps no
// state between calls beyond its configuration. Statements within a script
// and migrations within a batch run strictly in sequence. The target store
// has no multi-statement transactions, so a failure part-way through a
// script leaves the earlier statements applied.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"golang.org/x/sync/errgroup"

	"github.com/aqasim81/cql-migrate/internal/database"
	"github.com/aqasim81/cql-migrate/internal/executor"
	"github.com/aqasim81/cql-migrate/internal/migration"
	"github.com/aqasim81/cql-migrate/internal/tracker"
)

// Defaults for Config fields left empty.
const (
	DefaultMigrationsDir   = "./migrations"
	DefaultMigrationsTable = "schema_migrations"
)

// ErrMigrationNotFound indicates an applied migration has no definition on disk.
var ErrMigrationNotFound = errors.New("migration file not found")

// ErrKeyspaceRequired indicates the engine was configured without a keyspace.
var ErrKeyspaceRequired = errors.New("keyspace is required")

// Store is the applied-set persisted in the target keyspace.
type Store interface {
	EnsureTable(ctx context.Context) error
	GetApplied(ctx context.Context) ([]tracker.AppliedMigration, error)
	RecordApplied(ctx context.Context, p tracker.RecordParams) error
	Remove(ctx context.Context, id string) error
}

// Runner executes one migration script.
type Runner interface {
	Run(ctx context.Context, script string, dryRun bool) error
}

// Releaser is returned by a LockFunc and must be released when done.
type Releaser interface {
	Release(ctx context.Context) error
}

// LockFunc acquires the cross-process migration lock.
type LockFunc func(ctx context.Context) (Releaser, error)

// PreflightFunc inspects the pending set before anything is applied.
// Returning an error aborts Up without side effects.
type PreflightFunc func(pending []migration.Migration) error

// Config is the engine's static configuration.
type Config struct {
	Keyspace        string
	MigrationsDir   string
	MigrationsTable string
	Lock            bool
	LockTTL         time.Duration
	Consistency     gocql.Consistency
}

// Engine applies and rolls back migrations for one keyspace.
type Engine struct {
	session     *gocql.Session
	cfg         Config
	source      migration.Source
	store       Store
	runner      Runner
	acquireLock LockFunc
	preflight   PreflightFunc
	logger      *slog.Logger
	now         func() time.Time
	closeOnce   sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource replaces the directory loader.
func WithSource(s migration.Source) Option {
	return func(e *Engine) { e.source = s }
}

// WithStore replaces the gocql-backed tracking table.
func WithStore(s Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithRunner replaces the statement executor.
func WithRunner(r Runner) Option {
	return func(e *Engine) { e.runner = r }
}

// WithLockFunc replaces the lease lock.
func WithLockFunc(fn LockFunc) Option {
	return func(e *Engine) { e.acquireLock = fn }
}

// WithPreflight installs a check run against the pending set in Up.
func WithPreflight(fn PreflightFunc) Option {
	return func(e *Engine) { e.preflight = fn }
}

// WithLogger sets the logger for progress and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the time source used for applied_at.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine. Collaborators not supplied through options are
// built on top of session.
func New(session *gocql.Session, cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Keyspace == "" {
		return nil, ErrKeyspaceRequired
	}

	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = DefaultMigrationsDir
	}

	if cfg.MigrationsTable == "" {
		cfg.MigrationsTable = DefaultMigrationsTable
	}

	if cfg.Consistency == 0 {
		cfg.Consistency = gocql.Quorum
	}

	e := &Engine{session: session, cfg: cfg}

	for _, opt := range opts {
		opt(e)
	}

	// Defaults are filled after options so tests can inject fakes.
	if err := e.setDefaults(); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) setDefaults() error {
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	if e.now == nil {
		e.now = time.Now
	}

	if e.source == nil {
		e.source = migration.NewDirSource(e.cfg.MigrationsDir, e.logger)
	}

	if e.store == nil {
		t, err := tracker.New(e.session, e.cfg.Keyspace, e.cfg.MigrationsTable, tracker.WithConsistency(e.cfg.Consistency))
		if err != nil {
			return err
		}

		e.store = t
	}

	if e.runner == nil {
		e.runner = executor.New(e.session, executor.WithLogger(e.logger))
	}

	if e.acquireLock == nil {
		if e.cfg.Lock {
			e.acquireLock = e.leaseLock
		} else {
			e.acquireLock = noLock
		}
	}

	return nil
}

// Close releases the session. The engine must not be used afterwards.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		if e.session != nil {
			e.session.Close()
		}
	})
}

// load ensures the tracking table exists, then reads definitions and the
// applied-set concurrently.
func (e *Engine) load(ctx context.Context) ([]migration.Migration, []tracker.AppliedMigration, error) {
	if err := e.store.EnsureTable(ctx); err != nil {
		e.logger.Error("Failed to prepare tracking table", "error", err)

		return nil, nil, err
	}

	var (
		defs    []migration.Migration
		applied []tracker.AppliedMigration
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		defs, err = e.source.Load(gctx)
		if err != nil {
			return fmt.Errorf("loading migrations: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		var err error

		applied, err = e.store.GetApplied(gctx)
		if err != nil {
			return fmt.Errorf("reading applied migrations: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		e.logger.Error("Failed to load migration state", "error", err)

		return nil, nil, err
	}

	return defs, applied, nil
}

// lock acquires the migration lock unless dryRun is set, and returns the
// function that releases it.
func (e *Engine) lock(ctx context.Context, dryRun bool) (func(), error) {
	if dryRun {
		return func() {}, nil
	}

	l, err := e.acquireLock(ctx)
	if err != nil {
		e.logger.Error("Could not acquire migration lock", "error", err)

		return nil, err
	}

	return func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			e.logger.Warn("Failed to release migration lock", "error", err)
		}
	}, nil
}

func (e *Engine) leaseLock(ctx context.Context) (Releaser, error) {
	if err := database.EnsureLockTable(ctx, e.session, e.cfg.Keyspace, e.cfg.MigrationsTable); err != nil {
		return nil, err
	}

	return database.TryAcquireLock(ctx, e.session, e.cfg.Keyspace, e.cfg.MigrationsTable, e.cfg.LockTTL)
}

type noopReleaser struct{}

func (noopReleaser) Release(context.Context) error { return nil }

func noLock(context.Context) (Releaser, error) { return noopReleaser{}, nil }
