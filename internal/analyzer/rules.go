package analyzer

import (
	"regexp"
	"strings"

	"github.com/aqasim81/cql-migrate/internal/cql"
	"github.com/aqasim81/cql-migrate/internal/migration"
)

// Rule is the interface that all danger detection rules must implement.
type Rule interface {
	// ID returns a unique kebab-case identifier for this rule.
	ID() string
	// Check examines a single statement and returns any findings.
	Check(stmt cql.Statement, ctx *RuleContext) []Finding
}

// RuleContext provides contextual information to rules during analysis.
type RuleContext struct {
	Migration *migration.Migration
	StmtIndex int
}

// Registry holds a collection of rules.
type Registry struct {
	rules []Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a rule to the registry.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Rules returns all registered rules.
func (r *Registry) Rules() []Rule {
	return r.rules
}

var spaceRun = regexp.MustCompile(`\s+`)

// Normalize collapses runs of whitespace to a single space so rules can
// match keywords with simple case-insensitive patterns.
func Normalize(text string) string {
	return spaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
}

// ObjectName strips quoting from a possibly keyspace-qualified name and
// lower-cases unquoted parts, as the server does.
func ObjectName(name string) string {
	if name == "" {
		return "<unknown>"
	}

	parts := strings.Split(name, ".")
	for i, p := range parts {
		if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
			parts[i] = p[1 : len(p)-1]
		} else {
			parts[i] = strings.ToLower(p)
		}
	}

	return strings.Join(parts, ".")
}
