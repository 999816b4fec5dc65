package rules

import (
	"regexp"

	"github.com/aqasim81/cql-migrate/internal/analyzer"
	"github.com/aqasim81/cql-migrate/internal/cql"
)

var dropKeyspacePattern = regexp.MustCompile(`(?i)^DROP (?:KEYSPACE|SCHEMA) (?:IF EXISTS )?(\S+)`)

// DropKeyspaceRule detects DROP KEYSPACE statements.
type DropKeyspaceRule struct{}

// NewDropKeyspaceRule creates a new DropKeyspaceRule.
func NewDropKeyspaceRule() *DropKeyspaceRule { return &DropKeyspaceRule{} }

// ID returns the rule identifier.
func (r *DropKeyspaceRule) ID() string { return "drop-keyspace" }

// Check examines a statement for DROP KEYSPACE.
func (r *DropKeyspaceRule) Check(stmt cql.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	m := dropKeyspacePattern.FindStringSubmatch(analyzer.Normalize(stmt.Text))
	if m == nil {
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.Critical,
		Table:      analyzer.ObjectName(m[1]),
		Message:    "DROP KEYSPACE deletes every table in the keyspace, including the migration tracking table",
		Suggestion: "Manage keyspaces outside of migrations",
		StmtIndex:  ctx.StmtIndex,
	}}
}
