package rules

import (
	"regexp"

	"github.com/aqasim81/cql-migrate/internal/analyzer"
	"github.com/aqasim81/cql-migrate/internal/cql"
)

var createIndexPattern = regexp.MustCompile(`(?i)^CREATE (?:CUSTOM )?INDEX .*?\bON ([^\s(]+)`)

// SecondaryIndexRule detects CREATE INDEX statements.
type SecondaryIndexRule struct{}

// NewSecondaryIndexRule creates a new SecondaryIndexRule.
func NewSecondaryIndexRule() *SecondaryIndexRule { return &SecondaryIndexRule{} }

// ID returns the rule identifier.
func (r *SecondaryIndexRule) ID() string { return "secondary-index" }

// Check examines a statement for CREATE INDEX.
func (r *SecondaryIndexRule) Check(stmt cql.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	m := createIndexPattern.FindStringSubmatch(analyzer.Normalize(stmt.Text))
	if m == nil {
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.Medium,
		Table:      analyzer.ObjectName(m[1]),
		Message:    "Secondary indexes are built in the background on every node and queries through them fan out across the cluster",
		Suggestion: "Prefer a query table keyed by the indexed column",
		StmtIndex:  ctx.StmtIndex,
	}}
}
