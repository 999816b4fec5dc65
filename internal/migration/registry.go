package migration

import (
	"context"
	"sync"
)

// Registry holds migrations compiled into the binary. It satisfies Source,
// so programs embedding the engine can ship migrations as Go code instead
// of files.
type Registry struct {
	mu         sync.Mutex
	migrations []Migration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a migration. The filename follows the same
// <digits>_<name> convention as on-disk migrations.
func (r *Registry) Register(filename, up, down string) error {
	id, name, err := ParseFilename(filename)
	if err != nil {
		return err
	}

	if up == "" {
		return formatErr(filename, "missing \"up\" script", nil)
	}

	if down == "" {
		return formatErr(filename, "missing \"down\" script", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.migrations = append(r.migrations, Migration{
		ID:         id,
		Name:       name,
		Filename:   filename,
		UpScript:   up,
		DownScript: down,
	})

	return nil
}

// MustRegister is like Register but panics on error. Intended for init funcs.
func (r *Registry) MustRegister(filename, up, down string) {
	if err := r.Register(filename, up, down); err != nil {
		panic(err)
	}
}

// Load returns the registered migrations sorted by id.
func (r *Registry) Load(_ context.Context) ([]Migration, error) {
	r.mu.Lock()
	sorted := Sort(r.migrations)
	r.mu.Unlock()

	if err := CheckDuplicates(sorted); err != nil {
		return nil, err
	}

	return sorted, nil
}
