package analyzer_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/cql-migrate/internal/analyzer"
	"github.com/aqasim81/cql-migrate/internal/cql"
	"github.com/aqasim81/cql-migrate/internal/migration"
)

// stubRule is a test rule that always returns a finding.
type stubRule struct{}

func (r *stubRule) ID() string { return "test-stub" }

func (r *stubRule) Check(_ cql.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	return []analyzer.Finding{{
		Rule:      r.ID(),
		Severity:  analyzer.High,
		Message:   "stub finding",
		StmtIndex: ctx.StmtIndex,
	}}
}

func TestAnalyze_safeMigration_noFindings(t *testing.T) {
	t.Parallel()

	m := &migration.Migration{
		ID:       "001",
		Name:     "create_users",
		UpScript: "CREATE TABLE users (id uuid PRIMARY KEY);",
	}

	a := analyzer.New() // no rules registered

	result, err := a.Analyze(m)
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.Equal(t, analyzer.Safe, result.MaxSeverity)
}

func TestAnalyze_withStubRule_returnsFindings(t *testing.T) {
	t.Parallel()

	m := &migration.Migration{
		ID:       "001",
		Name:     "create_users",
		UpScript: "CREATE TABLE users (id uuid PRIMARY KEY);",
	}

	registry := analyzer.NewRegistry()
	registry.Register(&stubRule{})

	a := analyzer.New(analyzer.WithRegistry(registry))

	result, err := a.Analyze(m)
	require.NoError(t, err)
	assert.Len(t, result.Findings, 1)
	assert.Equal(t, analyzer.High, result.MaxSeverity)
	assert.Equal(t, "test-stub", result.Findings[0].Rule)
}

func TestAnalyze_unterminatedLiteral_returnsError(t *testing.T) {
	t.Parallel()

	m := &migration.Migration{
		ID:       "001",
		Name:     "bad_cql",
		UpScript: "INSERT INTO t (a) VALUES ('oops);",
	}

	a := analyzer.New()

	_, err := a.Analyze(m)
	require.Error(t, err)
	require.ErrorIs(t, err, cql.ErrUnterminated)
	assert.Contains(t, err.Error(), "splitting migration 001")
}

func TestAnalyze_emptyMigration_noFindings(t *testing.T) {
	t.Parallel()

	m := &migration.Migration{ID: "001", Name: "empty"}

	a := analyzer.New()

	result, err := a.Analyze(m)
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.Equal(t, analyzer.Safe, result.MaxSeverity)
}

func TestAnalyzeAll_multipleMigrations_correctResultCount(t *testing.T) {
	t.Parallel()

	migrations := []migration.Migration{
		{ID: "001", Name: "first", UpScript: "CREATE TABLE a (id int PRIMARY KEY);"},
		{ID: "002", Name: "second", UpScript: "CREATE TABLE b (id int PRIMARY KEY);"},
	}

	a := analyzer.New()

	results, err := a.AnalyzeAll(migrations)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestAnalyzeAll_errorInOne_returnsWrappedError(t *testing.T) {
	t.Parallel()

	migrations := []migration.Migration{
		{ID: "001", Name: "good", UpScript: "CREATE TABLE a (id int PRIMARY KEY);"},
		{ID: "002", Name: "bad", UpScript: "/* never closed"},
	}

	a := analyzer.New()

	_, err := a.AnalyzeAll(migrations)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "splitting migration 002")
}

func TestAnalyze_multiStatement_runsRulesOnEach(t *testing.T) {
	t.Parallel()

	m := &migration.Migration{
		ID:       "001",
		Name:     "multi",
		UpScript: "CREATE TABLE a (id int PRIMARY KEY); CREATE TABLE b (id int PRIMARY KEY);",
	}

	registry := analyzer.NewRegistry()
	registry.Register(&stubRule{})

	a := analyzer.New(analyzer.WithRegistry(registry))

	result, err := a.Analyze(m)
	require.NoError(t, err)
	assert.Len(t, result.Findings, 2)
	assert.Equal(t, 0, result.Findings[0].StmtIndex)
	assert.Equal(t, 1, result.Findings[1].StmtIndex)
}

func TestAnalyze_populatesStatementField(t *testing.T) {
	t.Parallel()

	m := &migration.Migration{
		ID:       "001",
		Name:     "test",
		UpScript: "CREATE TABLE users (id uuid PRIMARY KEY);",
	}

	registry := analyzer.NewRegistry()
	registry.Register(&stubRule{})

	a := analyzer.New(analyzer.WithRegistry(registry))

	result, err := a.Analyze(m)
	require.NoError(t, err)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "CREATE TABLE users (id uuid PRIMARY KEY)", result.Findings[0].Statement)
}

func TestWithSplitter_overridesSplitter(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	called := false

	a := analyzer.New(analyzer.WithSplitter(func(string) ([]cql.Statement, error) {
		called = true
		return nil, boom
	}))

	_, err := a.Analyze(&migration.Migration{ID: "001", UpScript: "SELECT 1;"})
	require.ErrorIs(t, err, boom)
	assert.True(t, called)
}
