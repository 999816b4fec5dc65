package rules

import (
	"regexp"
	"strings"

	"github.com/aqasim81/cql-migrate/internal/analyzer"
	"github.com/aqasim81/cql-migrate/internal/cql"
)

var dropColumnPattern = regexp.MustCompile(`(?i)^ALTER (?:TABLE|COLUMNFAMILY) (\S+) DROP (.+)$`)

// DropColumnRule detects ALTER TABLE ... DROP.
type DropColumnRule struct{}

// NewDropColumnRule creates a new DropColumnRule.
func NewDropColumnRule() *DropColumnRule { return &DropColumnRule{} }

// ID returns the rule identifier.
func (r *DropColumnRule) ID() string { return "drop-column" }

// Check examines a statement for a dropped column.
func (r *DropColumnRule) Check(stmt cql.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	m := dropColumnPattern.FindStringSubmatch(analyzer.Normalize(stmt.Text))
	if m == nil {
		return nil
	}

	if strings.HasPrefix(strings.ToUpper(m[2]), "COMPACT STORAGE") {
		return nil
	}

	return []analyzer.Finding{{
		Rule:     r.ID(),
		Severity: analyzer.High,
		Table:    analyzer.ObjectName(m[1]),
		Message:  "Dropping a column discards its data; re-adding a column with the same name does not bring it back",
		Suggestion: "Stop reading the column in application code first, " +
			"then drop it in a later release",
		StmtIndex: ctx.StmtIndex,
	}}
}
