package rules

import (
	"regexp"

	"github.com/aqasim81/cql-migrate/internal/analyzer"
	"github.com/aqasim81/cql-migrate/internal/cql"
)

var renamePattern = regexp.MustCompile(`(?i)^ALTER (?:TABLE|COLUMNFAMILY) (\S+) RENAME `)

// RenameRule detects ALTER TABLE ... RENAME.
type RenameRule struct{}

// NewRenameRule creates a new RenameRule.
func NewRenameRule() *RenameRule { return &RenameRule{} }

// ID returns the rule identifier.
func (r *RenameRule) ID() string { return "rename" }

// Check examines a statement for a column rename.
func (r *RenameRule) Check(stmt cql.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	m := renamePattern.FindStringSubmatch(analyzer.Normalize(stmt.Text))
	if m == nil {
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.High,
		Table:      analyzer.ObjectName(m[1]),
		Message:    "RENAME breaks application code that references the old column name",
		Suggestion: "Add a new column, write to both, backfill, then drop the old one",
		StmtIndex:  ctx.StmtIndex,
	}}
}
