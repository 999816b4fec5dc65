package engine

import (
	"context"
	"sort"
	"time"

	"github.com/aqasim81/cql-migrate/internal/migration"
)

// State classifies a migration in a status report.
type State string

// Migration states.
const (
	StateApplied State = "applied"
	StatePending State = "pending"
	// StateMissing marks an applied id whose definition file is gone.
	StateMissing State = "missing"
)

// MigrationStatus pairs a migration with its applied state.
type MigrationStatus struct {
	ID        string     `json:"id"`
	Filename  string     `json:"filename"`
	State     State      `json:"state"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

// Status reports every loaded migration in load order, followed by any
// applied ids with no definition. It has no side effects beyond creating
// the tracking table if absent.
func (e *Engine) Status(ctx context.Context) ([]MigrationStatus, error) {
	defs, applied, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	appliedAt := make(map[string]time.Time, len(applied))
	filenames := make(map[string]string, len(applied))

	for _, a := range applied {
		appliedAt[a.ID] = a.AppliedAt
		filenames[a.ID] = a.Filename
	}

	out := make([]MigrationStatus, 0, len(defs))
	known := make(map[string]struct{}, len(defs))

	for _, m := range defs {
		known[m.ID] = struct{}{}
		st := MigrationStatus{ID: m.ID, Filename: m.Filename, State: StatePending}

		if at, ok := appliedAt[m.ID]; ok {
			st.State = StateApplied
			st.AppliedAt = &at
		}

		out = append(out, st)
	}

	var orphans []MigrationStatus

	for id, at := range appliedAt {
		if _, ok := known[id]; ok {
			continue
		}

		orphans = append(orphans, MigrationStatus{ID: id, Filename: filenames[id], State: StateMissing, AppliedAt: &at})
	}

	sort.Slice(orphans, func(i, j int) bool {
		return migration.CompareIDs(orphans[i].ID, orphans[j].ID) < 0
	})

	if len(orphans) > 0 {
		e.logger.Warn("Applied migrations without files", "count", len(orphans))
	}

	return append(out, orphans...), nil
}
