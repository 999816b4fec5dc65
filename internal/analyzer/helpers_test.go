package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqasim81/cql-migrate/internal/analyzer"
)

func TestObjectName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"plain", "Users", "users"},
		{"qualified", "Shop.Users", "shop.users"},
		{"quoted keeps case", `"Shop"."MixedCase"`, "Shop.MixedCase"},
		{"empty", "", "<unknown>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, analyzer.ObjectName(tt.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "alter table users drop email", analyzer.Normalize("  alter table\n\tusers   drop email "))
}

func TestHasHighOrCritical(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		severity analyzer.Severity
		expected bool
	}{
		{"safe", analyzer.Safe, false},
		{"low", analyzer.Low, false},
		{"medium", analyzer.Medium, false},
		{"high", analyzer.High, true},
		{"critical", analyzer.Critical, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &analyzer.AnalysisResult{MaxSeverity: tt.severity}
			assert.Equal(t, tt.expected, r.HasHighOrCritical())
		})
	}
}

func TestBlocking_filtersHighAndCritical(t *testing.T) {
	t.Parallel()

	results := []analyzer.AnalysisResult{
		{MaxSeverity: analyzer.Safe},
		{MaxSeverity: analyzer.Critical},
		{MaxSeverity: analyzer.Medium},
		{MaxSeverity: analyzer.High},
	}

	blocking := analyzer.Blocking(results)

	assert.Len(t, blocking, 2)
	assert.Equal(t, analyzer.Critical, blocking[0].MaxSeverity)
	assert.Equal(t, analyzer.High, blocking[1].MaxSeverity)
}
