package analyzer

import "github.com/aqasim81/cql-migrate/internal/migration"

// Finding represents a single dangerous pattern detected in a migration.
type Finding struct {
	Rule       string   // Rule ID (e.g., "drop-column")
	Severity   Severity // Danger level
	Table      string   // Affected table, view or keyspace
	Statement  string   // The CQL statement text (truncated for display)
	Message    string   // Human-readable description of the danger
	Suggestion string   // Safe alternative approach
	StmtIndex  int      // Index in the migration's statement list (0-based)
}

// AnalysisResult holds all findings for a single migration.
type AnalysisResult struct {
	Migration   *migration.Migration
	Findings    []Finding
	MaxSeverity Severity // Highest severity across all findings
}

// HasHighOrCritical returns true if any finding is High or Critical severity.
func (r *AnalysisResult) HasHighOrCritical() bool {
	return r.MaxSeverity >= High
}
