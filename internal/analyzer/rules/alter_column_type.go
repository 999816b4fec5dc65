package rules

import (
	"regexp"

	"github.com/aqasim81/cql-migrate/internal/analyzer"
	"github.com/aqasim81/cql-migrate/internal/cql"
)

var alterTypePattern = regexp.MustCompile(`(?i)^ALTER (?:TABLE|COLUMNFAMILY) (\S+) ALTER \S+ TYPE `)

// AlterColumnTypeRule detects ALTER TABLE ... ALTER ... TYPE.
type AlterColumnTypeRule struct{}

// NewAlterColumnTypeRule creates a new AlterColumnTypeRule.
func NewAlterColumnTypeRule() *AlterColumnTypeRule { return &AlterColumnTypeRule{} }

// ID returns the rule identifier.
func (r *AlterColumnTypeRule) ID() string { return "alter-column-type" }

// Check examines a statement for a column type change.
func (r *AlterColumnTypeRule) Check(stmt cql.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	m := alterTypePattern.FindStringSubmatch(analyzer.Normalize(stmt.Text))
	if m == nil {
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.High,
		Table:      analyzer.ObjectName(m[1]),
		Message:    "Changing a column type is rejected by recent servers and can corrupt reads of existing SSTables on older ones",
		Suggestion: "Add a new column with the new type, backfill it, and switch readers over",
		StmtIndex:  ctx.StmtIndex,
	}}
}
