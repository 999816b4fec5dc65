package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/aqasim81/cql-migrate/internal/migration"
	"github.com/aqasim81/cql-migrate/internal/tracker"
)

// Down rolls back the most recently applied migration and returns 1, or 0
// when nothing is applied. A missing definition for that migration fails
// with ErrMigrationNotFound.
func (e *Engine) Down(ctx context.Context, dryRun bool) (int, error) {
	unlock, err := e.lock(ctx, dryRun)
	if err != nil {
		return 0, err
	}
	defer unlock()

	defs, applied, err := e.load(ctx)
	if err != nil {
		return 0, err
	}

	if len(applied) == 0 {
		e.logger.Warn("No applied migrations")

		return 0, nil
	}

	target := RollbackOrder(applied)[0]

	def, ok := indexByID(defs)[target.ID]
	if !ok {
		err := fmt.Errorf("%w: %s (%s)", ErrMigrationNotFound, target.ID, target.Filename)
		e.logger.Error("Cannot roll back", "id", target.ID, "error", err)

		return 0, err
	}

	if err := e.rollbackOne(ctx, def, dryRun); err != nil {
		return 0, err
	}

	if dryRun {
		e.logger.Info("Dry run complete: 1 migration would be rolled back")
	} else {
		e.logger.Info("Rolled back 1 migration(s)", "count", 1)
	}

	return 1, nil
}

// Reset rolls back every applied migration, most recent first, and returns
// how many were rolled back. Applied ids without a definition are skipped
// with a warning. A failing down-script stops the reset; migrations rolled
// back before it stay rolled back.
func (e *Engine) Reset(ctx context.Context, dryRun bool) (int, error) {
	unlock, err := e.lock(ctx, dryRun)
	if err != nil {
		return 0, err
	}
	defer unlock()

	defs, applied, err := e.load(ctx)
	if err != nil {
		return 0, err
	}

	if len(applied) == 0 {
		e.logger.Warn("No applied migrations")

		return 0, nil
	}

	index := indexByID(defs)
	count := 0

	for _, a := range RollbackOrder(applied) {
		def, ok := index[a.ID]
		if !ok {
			e.logger.Warn("Skipping applied migration with no file", "id", a.ID, "file", a.Filename)

			continue
		}

		if err := e.rollbackOne(ctx, def, dryRun); err != nil {
			return count, err
		}

		count++
	}

	if dryRun {
		e.logger.Info(fmt.Sprintf("Dry run complete: %d migration(s) would be rolled back", count), "count", count)
	} else {
		e.logger.Info(fmt.Sprintf("Rolled back %d migration(s)", count), "count", count)
	}

	return count, nil
}

func (e *Engine) rollbackOne(ctx context.Context, m *migration.Migration, dryRun bool) error {
	log := e.logger.With("id", m.ID, "file", m.Filename)
	log.Info("Rolling back migration")

	if err := e.runner.Run(ctx, m.DownScript, dryRun); err != nil {
		log.Error("Rollback failed", "error", err)

		return fmt.Errorf("rolling back migration %s: %w", m.ID, err)
	}

	if dryRun {
		return nil
	}

	if err := e.store.Remove(ctx, m.ID); err != nil {
		log.Error("Removing migration record failed", "error", err)

		return fmt.Errorf("removing migration %s: %w", m.ID, err)
	}

	log.Info("Rolled back migration")

	return nil
}

// RollbackOrder returns applied sorted most recent first. Equal applied_at
// values fall back to descending numeric id so the order is deterministic.
func RollbackOrder(applied []tracker.AppliedMigration) []tracker.AppliedMigration {
	sorted := make([]tracker.AppliedMigration, len(applied))
	copy(sorted, applied)

	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].AppliedAt.Equal(sorted[j].AppliedAt) {
			return sorted[i].AppliedAt.After(sorted[j].AppliedAt)
		}

		return migration.CompareIDs(sorted[i].ID, sorted[j].ID) > 0
	})

	return sorted
}

func indexByID(defs []migration.Migration) map[string]*migration.Migration {
	index := make(map[string]*migration.Migration, len(defs))
	for i := range defs {
		index[defs[i].ID] = &defs[i]
	}

	return index
}
