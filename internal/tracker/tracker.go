package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/aqasim81/cql-migrate/internal/database"
)

// AppliedMigration is one row of the tracking table.
type AppliedMigration struct {
	ID        string
	Filename  string
	AppliedAt time.Time
	Checksum  string
}

// RecordParams contains the fields written when a migration is applied.
type RecordParams struct {
	ID        string
	Filename  string
	Checksum  string
	AppliedAt time.Time
}

// Tracker manages the tracking table for one keyspace. It is the only
// writer of that table.
type Tracker struct {
	session     *gocql.Session
	keyspace    string
	table       string
	name        string
	consistency gocql.Consistency
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithConsistency sets the consistency level for tracking table reads and writes.
func WithConsistency(c gocql.Consistency) Option {
	return func(t *Tracker) { t.consistency = c }
}

// New creates a Tracker for keyspace.table. Names are validated so they can
// be interpolated into CQL safely.
func New(session *gocql.Session, keyspace, table string, opts ...Option) (*Tracker, error) {
	name, err := database.QualifiedName(keyspace, table)
	if err != nil {
		return nil, fmt.Errorf("tracking table: %w", err)
	}

	t := &Tracker{
		session:     session,
		keyspace:    keyspace,
		table:       table,
		name:        name,
		consistency: gocql.Quorum,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Name returns the qualified table name.
func (t *Tracker) Name() string { return t.name }

// EnsureTable creates the tracking table if it does not exist.
func (t *Tracker) EnsureTable(ctx context.Context) error {
	err := t.session.Query(fmt.Sprintf(createTableCQL, t.name)).WithContext(ctx).Exec()
	if err != nil {
		return t.fail(OpEnsureTable, "", err)
	}

	return nil
}

// GetApplied returns every row of the tracking table. Rows come back in
// partition-token order; callers sort as needed.
func (t *Tracker) GetApplied(ctx context.Context) ([]AppliedMigration, error) {
	iter := t.session.Query(
		fmt.Sprintf(`SELECT id, filename, applied_at, checksum FROM %s`, t.name),
	).WithContext(ctx).Consistency(t.consistency).Iter()

	var (
		applied []AppliedMigration
		m       AppliedMigration
	)

	for iter.Scan(&m.ID, &m.Filename, &m.AppliedAt, &m.Checksum) {
		applied = append(applied, m)
		m = AppliedMigration{}
	}

	if err := iter.Close(); err != nil {
		return nil, t.fail(OpList, "", err)
	}

	return applied, nil
}

// RecordApplied inserts a row for an applied migration. Cassandra inserts
// are upserts, so a duplicate id overwrites the earlier row.
func (t *Tracker) RecordApplied(ctx context.Context, p RecordParams) error {
	err := t.session.Query(
		fmt.Sprintf(`INSERT INTO %s (id, filename, applied_at, checksum) VALUES (?, ?, ?, ?)`, t.name),
		p.ID, p.Filename, p.AppliedAt, p.Checksum,
	).WithContext(ctx).Consistency(t.consistency).Exec()
	if err != nil {
		return t.fail(OpInsert, p.ID, err)
	}

	return nil
}

// Remove deletes the row for id. Deleting a missing id is not an error.
func (t *Tracker) Remove(ctx context.Context, id string) error {
	err := t.session.Query(
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, t.name),
		id,
	).WithContext(ctx).Consistency(t.consistency).Exec()
	if err != nil {
		return t.fail(OpRemove, id, err)
	}

	return nil
}

// GetChecksum returns the checksum recorded when id was applied. Nothing
// in the apply or rollback path reads it yet; it exists for drift checks.
func (t *Tracker) GetChecksum(ctx context.Context, id string) (string, error) {
	var checksum string

	err := t.session.Query(
		fmt.Sprintf(`SELECT checksum FROM %s WHERE id = ?`, t.name),
		id,
	).WithContext(ctx).Consistency(t.consistency).Scan(&checksum)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return "", fmt.Errorf("migration %s: %w", id, ErrMigrationNotFound)
		}

		return "", t.fail(OpChecksum, id, err)
	}

	return checksum, nil
}

func (t *Tracker) fail(op, id string, err error) error {
	return &StoreError{Op: op, ID: id, Table: t.name, Err: err}
}
