package rules

import (
	"regexp"

	"github.com/aqasim81/cql-migrate/internal/analyzer"
	"github.com/aqasim81/cql-migrate/internal/cql"
)

var (
	dropTablePattern = regexp.MustCompile(`(?i)^DROP (?:TABLE|COLUMNFAMILY) (IF EXISTS )?(\S+)`)
	truncatePattern  = regexp.MustCompile(`(?i)^TRUNCATE (?:TABLE |COLUMNFAMILY )?(\S+)`)
)

// DropTableRule detects DROP TABLE and TRUNCATE statements.
type DropTableRule struct{}

// NewDropTableRule creates a new DropTableRule.
func NewDropTableRule() *DropTableRule { return &DropTableRule{} }

// ID returns the rule identifier.
func (r *DropTableRule) ID() string { return "drop-table" }

// Check examines a statement for DROP TABLE or TRUNCATE.
func (r *DropTableRule) Check(stmt cql.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	text := analyzer.Normalize(stmt.Text)

	if m := dropTablePattern.FindStringSubmatch(text); m != nil {
		msg := "DROP TABLE is irreversible and will permanently delete all data"
		if m[1] != "" {
			msg = "DROP TABLE IF EXISTS is irreversible and will permanently delete all data"
		}

		return []analyzer.Finding{{
			Rule:       r.ID(),
			Severity:   analyzer.Critical,
			Table:      analyzer.ObjectName(m[2]),
			Message:    msg,
			Suggestion: "Take a snapshot first and make sure no application code still reads this table",
			StmtIndex:  ctx.StmtIndex,
		}}
	}

	if m := truncatePattern.FindStringSubmatch(text); m != nil {
		return []analyzer.Finding{{
			Rule:       r.ID(),
			Severity:   analyzer.Critical,
			Table:      analyzer.ObjectName(m[1]),
			Message:    "TRUNCATE removes all data from the table on every node",
			Suggestion: "Take a snapshot before truncating production tables",
			StmtIndex:  ctx.StmtIndex,
		}}
	}

	return nil
}
