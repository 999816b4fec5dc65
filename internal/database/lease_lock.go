package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a crashed runner can block others.
const DefaultLockTTL = 5 * time.Minute

// LockSuffix is appended to the tracking table name to form the lock table.
const LockSuffix = "_lock"

const lockName = "migrations"

// LockHandle is a lease row in <table>_lock owned by this process.
// Call Release when done; the row also expires after its TTL.
type LockHandle struct {
	session *gocql.Session
	table   string
	owner   string
}

// Owner returns the random id written into the lease row.
func (h *LockHandle) Owner() string { return h.owner }

// EnsureLockTable creates the lease table if it does not exist.
func EnsureLockTable(ctx context.Context, session *gocql.Session, keyspace, table string) error {
	name, err := QualifiedName(keyspace, table+LockSuffix)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    name        text PRIMARY KEY,
    owner       text,
    acquired_at timestamp
)`, name)

	if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("creating lock table %s: %w", name, err)
	}

	return nil
}

// TryAcquireLock inserts the lease row with a lightweight transaction.
// It returns ErrLockNotAcquired, naming the current holder, if another
// runner owns the lease. The lock table must already exist.
func TryAcquireLock(ctx context.Context, session *gocql.Session, keyspace, table string, ttl time.Duration) (*LockHandle, error) {
	name, err := QualifiedName(keyspace, table+LockSuffix)
	if err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	owner := uuid.NewString()
	existing := map[string]any{}

	applied, err := session.Query(
		fmt.Sprintf(`INSERT INTO %s (name, owner, acquired_at) VALUES (?, ?, ?) IF NOT EXISTS USING TTL ?`, name),
		lockName, owner, time.Now().UTC(), int(ttl.Seconds()),
	).WithContext(ctx).SerialConsistency(gocql.Serial).MapScanCAS(existing)
	if err != nil {
		return nil, fmt.Errorf("acquiring migration lock: %w", err)
	}

	if !applied {
		return nil, fmt.Errorf("%w: held by %v since %v", ErrLockNotAcquired, existing["owner"], existing["acquired_at"])
	}

	return &LockHandle{session: session, table: name, owner: owner}, nil
}

// Release deletes the lease row if this handle still owns it.
// Safe to call multiple times and on a nil handle.
func (h *LockHandle) Release(ctx context.Context) error {
	if h == nil || h.session == nil {
		return nil
	}

	existing := map[string]any{}

	_, err := h.session.Query(
		fmt.Sprintf(`DELETE FROM %s WHERE name = ? IF owner = ?`, h.table),
		lockName, h.owner,
	).WithContext(ctx).SerialConsistency(gocql.Serial).MapScanCAS(existing)
	h.session = nil

	if err != nil {
		return fmt.Errorf("releasing migration lock: %w", err)
	}

	return nil
}
