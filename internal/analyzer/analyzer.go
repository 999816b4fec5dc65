package analyzer

import (
	"fmt"

	"github.com/aqasim81/cql-migrate/internal/cql"
	"github.com/aqasim81/cql-migrate/internal/migration"
)

const maxStatementLen = 120

// Option configures the Analyzer.
type Option func(*Analyzer)

// Analyzer runs registered rules against the statements of each migration's
// up-script.
type Analyzer struct {
	registry *Registry
	splitFn  func(string) ([]cql.Statement, error)
}

// New creates a new Analyzer with the given options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		registry: NewRegistry(),
		splitFn:  cql.Split,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// WithRegistry sets a custom rule registry.
func WithRegistry(r *Registry) Option {
	return func(a *Analyzer) { a.registry = r }
}

// WithSplitter overrides the statement splitter (useful for testing).
func WithSplitter(fn func(string) ([]cql.Statement, error)) Option {
	return func(a *Analyzer) { a.splitFn = fn }
}

// Analyze splits and analyzes a single migration, returning all findings.
func (a *Analyzer) Analyze(m *migration.Migration) (*AnalysisResult, error) {
	stmts, err := a.splitFn(m.UpScript)
	if err != nil {
		return nil, fmt.Errorf("splitting migration %s: %w", m.ID, err)
	}

	var findings []Finding

	maxSeverity := Safe

	for _, stmt := range stmts {
		ctx := &RuleContext{
			Migration: m,
			StmtIndex: stmt.Index,
		}

		for _, rule := range a.registry.Rules() {
			fs := rule.Check(stmt, ctx)
			for j := range fs {
				if fs[j].Statement == "" {
					fs[j].Statement = cql.Truncate(stmt.Text, maxStatementLen)
				}

				if fs[j].Severity > maxSeverity {
					maxSeverity = fs[j].Severity
				}
			}

			findings = append(findings, fs...)
		}
	}

	return &AnalysisResult{
		Migration:   m,
		Findings:    findings,
		MaxSeverity: maxSeverity,
	}, nil
}

// AnalyzeAll analyzes multiple migrations and returns results for each.
func (a *Analyzer) AnalyzeAll(migrations []migration.Migration) ([]AnalysisResult, error) {
	results := make([]AnalysisResult, 0, len(migrations))

	for i := range migrations {
		r, err := a.Analyze(&migrations[i])
		if err != nil {
			return nil, err
		}

		results = append(results, *r)
	}

	return results, nil
}

// Blocking returns the results that carry a High or Critical finding.
func Blocking(results []AnalysisResult) []AnalysisResult {
	var out []AnalysisResult

	for _, r := range results {
		if r.HasHighOrCritical() {
			out = append(out, r)
		}
	}

	return out
}
