package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqasim81/cql-migrate/internal/migration"
)

func TestComputeChecksum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		script string
		check  func(t *testing.T, checksum string)
	}{
		{
			name:   "produces 64-char hex string",
			script: "CREATE TABLE users (id uuid PRIMARY KEY);",
			check: func(t *testing.T, checksum string) {
				t.Helper()
				assert.Regexp(t, `^[0-9a-f]{64}$`, checksum)
			},
		},
		{
			name:   "deterministic for same input",
			script: "CREATE TABLE users (id uuid PRIMARY KEY);",
			check: func(t *testing.T, checksum string) {
				t.Helper()
				assert.Equal(t, checksum, migration.ComputeChecksum("CREATE TABLE users (id uuid PRIMARY KEY);"))
			},
		},
		{
			name:   "different script produces different checksum",
			script: "CREATE TABLE users (id uuid PRIMARY KEY);",
			check: func(t *testing.T, checksum string) {
				t.Helper()
				assert.NotEqual(t, checksum, migration.ComputeChecksum("CREATE TABLE posts (id uuid PRIMARY KEY);"))
			},
		},
		{
			name:   "empty string produces known digest",
			script: "",
			check: func(t *testing.T, checksum string) {
				t.Helper()
				assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", checksum)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.check(t, migration.ComputeChecksum(tt.script))
		})
	}
}

func TestMigration_Checksum_usesUpScript(t *testing.T) {
	t.Parallel()

	m := migration.Migration{UpScript: "CREATE TABLE a (id int PRIMARY KEY);", DownScript: "DROP TABLE a;"}

	assert.Equal(t, migration.ComputeChecksum(m.UpScript), m.Checksum())
}
