//go:build integration

package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/cql-migrate/internal/database"
)

const lockTable = "schema_migrations"

func TestLeaseLock_exclusive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	session, opts := SetupKeyspace(t)

	require.NoError(t, database.EnsureLockTable(ctx, session, opts.Keyspace, lockTable))

	first, err := database.TryAcquireLock(ctx, session, opts.Keyspace, lockTable, time.Minute)
	require.NoError(t, err)

	_, err = database.TryAcquireLock(ctx, session, opts.Keyspace, lockTable, time.Minute)
	require.ErrorIs(t, err, database.ErrLockNotAcquired)
	assert.Contains(t, err.Error(), first.Owner())

	require.NoError(t, first.Release(ctx))
	require.NoError(t, first.Release(ctx), "second release is a no-op")

	second, err := database.TryAcquireLock(ctx, session, opts.Keyspace, lockTable, time.Minute)
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
}

func TestLeaseLock_expiresAfterTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	session, opts := SetupKeyspace(t)

	require.NoError(t, database.EnsureLockTable(ctx, session, opts.Keyspace, lockTable))

	_, err := database.TryAcquireLock(ctx, session, opts.Keyspace, lockTable, 2*time.Second)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		h, err := database.TryAcquireLock(ctx, session, opts.Keyspace, lockTable, time.Minute)
		if err != nil {
			return false
		}

		_ = h.Release(ctx)

		return true
	}, 15*time.Second, 500*time.Millisecond)
}

func TestLeaseLock_concurrentRunners_onlyOneWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	session, opts := SetupKeyspace(t)

	require.NoError(t, database.EnsureLockTable(ctx, session, opts.Keyspace, lockTable))

	const runners = 5

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)

	for range runners {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, err := database.TryAcquireLock(ctx, session, opts.Keyspace, lockTable, time.Minute); err == nil {
				wins.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
