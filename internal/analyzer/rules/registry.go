package rules

import "github.com/aqasim81/cql-migrate/internal/analyzer"

// NewDefaultRegistry returns a Registry with all built-in detection rules.
func NewDefaultRegistry() *analyzer.Registry {
	r := analyzer.NewRegistry()
	r.Register(NewDropTableRule())
	r.Register(NewDropKeyspaceRule())
	r.Register(NewDropColumnRule())
	r.Register(NewSecondaryIndexRule())
	r.Register(NewMaterializedViewRule())
	r.Register(NewAlterColumnTypeRule())
	r.Register(NewRenameRule())

	return r
}
