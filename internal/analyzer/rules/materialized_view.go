package rules

import (
	"regexp"

	"github.com/aqasim81/cql-migrate/internal/analyzer"
	"github.com/aqasim81/cql-migrate/internal/cql"
)

var createViewPattern = regexp.MustCompile(`(?i)^CREATE MATERIALIZED VIEW (?:IF NOT EXISTS )?([^\s(]+)`)

// MaterializedViewRule detects CREATE MATERIALIZED VIEW statements.
type MaterializedViewRule struct{}

// NewMaterializedViewRule creates a new MaterializedViewRule.
func NewMaterializedViewRule() *MaterializedViewRule { return &MaterializedViewRule{} }

// ID returns the rule identifier.
func (r *MaterializedViewRule) ID() string { return "materialized-view" }

// Check examines a statement for CREATE MATERIALIZED VIEW.
func (r *MaterializedViewRule) Check(stmt cql.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	m := createViewPattern.FindStringSubmatch(analyzer.Normalize(stmt.Text))
	if m == nil {
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.Medium,
		Table:      analyzer.ObjectName(m[1]),
		Message:    "Materialized views are experimental and can drift out of sync with the base table",
		Suggestion: "Maintain a denormalized table from application code instead",
		StmtIndex:  ctx.StmtIndex,
	}}
}
