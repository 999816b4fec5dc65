package engine

import (
	"context"
	"fmt"

	"github.com/aqasim81/cql-migrate/internal/migration"
	"github.com/aqasim81/cql-migrate/internal/tracker"
)

// Up applies every pending migration in ascending id order and returns how
// many were applied. The first failure stops the batch; later migrations
// are never attempted. In dry-run mode nothing is executed or recorded.
func (e *Engine) Up(ctx context.Context, dryRun bool) (int, error) {
	unlock, err := e.lock(ctx, dryRun)
	if err != nil {
		return 0, err
	}
	defer unlock()

	defs, applied, err := e.load(ctx)
	if err != nil {
		return 0, err
	}

	pending := Pending(defs, applied)
	if len(pending) == 0 {
		e.logger.Info("No pending migrations")

		return 0, nil
	}

	if e.preflight != nil {
		if err := e.preflight(pending); err != nil {
			e.logger.Error("Preflight check failed", "error", err)

			return 0, err
		}
	}

	if dryRun {
		e.logger.Info("Dry run: no changes will be made", "pending", len(pending))
	}

	count := 0

	for i := range pending {
		if err := e.applyOne(ctx, &pending[i], dryRun); err != nil {
			return count, err
		}

		count++
	}

	if dryRun {
		e.logger.Info(fmt.Sprintf("Dry run complete: %d migration(s) would be applied", count), "count", count)
	} else {
		e.logger.Info(fmt.Sprintf("Successfully applied %d migration(s)", count), "count", count)
	}

	return count, nil
}

func (e *Engine) applyOne(ctx context.Context, m *migration.Migration, dryRun bool) error {
	log := e.logger.With("id", m.ID, "file", m.Filename)
	log.Info("Applying migration")

	if err := e.runner.Run(ctx, m.UpScript, dryRun); err != nil {
		log.Error("Migration failed", "error", err)

		return fmt.Errorf("applying migration %s: %w", m.ID, err)
	}

	if dryRun {
		return nil
	}

	// applied_at is taken after the script finished, at insertion time.
	if err := e.store.RecordApplied(ctx, tracker.RecordParams{
		ID:        m.ID,
		Filename:  m.Filename,
		Checksum:  m.Checksum(),
		AppliedAt: e.now().UTC(),
	}); err != nil {
		log.Error("Recording migration failed", "error", err)

		return fmt.Errorf("recording migration %s: %w", m.ID, err)
	}

	log.Info("Applied migration")

	return nil
}

// Pending returns the definitions whose id is not in applied, keeping the
// definitions' order.
func Pending(defs []migration.Migration, applied []tracker.AppliedMigration) []migration.Migration {
	done := make(map[string]struct{}, len(applied))
	for _, a := range applied {
		done[a.ID] = struct{}{}
	}

	var pending []migration.Migration

	for _, m := range defs {
		if _, ok := done[m.ID]; !ok {
			pending = append(pending, m)
		}
	}

	return pending
}
