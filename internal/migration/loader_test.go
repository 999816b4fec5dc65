package migration_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/cql-migrate/internal/migration"
)

func TestLoadFromDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(t *testing.T) string // returns directory path
		wantErr error
		errText string
		check   func(t *testing.T, ms []migration.Migration)
	}{
		{
			name: "loads from testdata directory",
			setup: func(t *testing.T) string {
				t.Helper()

				return filepath.Join("testdata", "migrations")
			},
			check: func(t *testing.T, ms []migration.Migration) {
				t.Helper()
				require.Len(t, ms, 3)
				assert.Equal(t, []string{"001", "002", "010"}, ids(ms))

				assert.Equal(t, "create_users", ms[0].Name)
				assert.Equal(t, "001_create_users.cql", ms[0].Filename)
				assert.Contains(t, ms[0].UpScript, "CREATE TABLE users")
				assert.Equal(t, "DROP TABLE users;", ms[0].DownScript)

				assert.Equal(t, "CREATE INDEX users_email_idx ON users (email);", ms[1].UpScript)
				assert.Equal(t, "DROP INDEX users_email_idx;", ms[1].DownScript)
			},
		},
		{
			name: "missing directory returns empty result",
			setup: func(t *testing.T) string {
				t.Helper()

				return filepath.Join(t.TempDir(), "nonexistent")
			},
			check: func(t *testing.T, ms []migration.Migration) {
				t.Helper()
				assert.Empty(t, ms)
			},
		},
		{
			name: "empty directory returns empty result",
			setup: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
			check: func(t *testing.T, ms []migration.Migration) {
				t.Helper()
				assert.Empty(t, ms)
			},
		},
		{
			name: "unrecognized extensions are skipped",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "README.md", "# readme")
				writeFile(t, dir, "001_notes.txt", "notes")

				return dir
			},
			check: func(t *testing.T, ms []migration.Migration) {
				t.Helper()
				assert.Empty(t, ms)
			},
		},
		{
			name: "filename without leading digits is a format error",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "create_users.cql", cqlFile("CREATE TABLE a (id int PRIMARY KEY);", "DROP TABLE a;"))

				return dir
			},
			wantErr: migration.ErrInvalidFormat,
			errText: "create_users.cql",
		},
		{
			name: "missing down section is a format error",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "001_a.cql", "-- +migrate Up\nCREATE TABLE a (id int PRIMARY KEY);\n")

				return dir
			},
			wantErr: migration.ErrInvalidFormat,
			errText: "+migrate Down",
		},
		{
			name: "section with only comments is a format error",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "001_a.cql", "-- +migrate Up\n-- nothing yet\n-- +migrate Down\nDROP TABLE a;\n")

				return dir
			},
			wantErr: migration.ErrInvalidFormat,
			errText: "+migrate Up",
		},
		{
			name: "markers are case sensitive",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "001_a.cql", "-- +MIGRATE UP\nCREATE TABLE a (id int PRIMARY KEY);\n-- +migrate Down\nDROP TABLE a;\n")

				return dir
			},
			wantErr: migration.ErrInvalidFormat,
			errText: "001_a.cql",
		},
		{
			name: "yaml without down key is a format error",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "001_a.yml", "up: CREATE TABLE a (id int PRIMARY KEY);\n")

				return dir
			},
			wantErr: migration.ErrInvalidFormat,
			errText: `missing "down" script`,
		},
		{
			name: "invalid yaml is a format error",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "001_a.yaml", "up: [unclosed\n")

				return dir
			},
			wantErr: migration.ErrInvalidFormat,
			errText: "parsing YAML",
		},
		{
			name: "one bad file aborts the whole load",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "001_a.cql", cqlFile("CREATE TABLE a (id int PRIMARY KEY);", "DROP TABLE a;"))
				writeFile(t, dir, "002_b.cql", "CREATE TABLE b (id int PRIMARY KEY);")

				return dir
			},
			wantErr: migration.ErrInvalidFormat,
			errText: "002_b.cql",
		},
		{
			name: "duplicate numeric id is rejected",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "1_a.cql", cqlFile("CREATE TABLE a (id int PRIMARY KEY);", "DROP TABLE a;"))
				writeFile(t, dir, "001_b.cql", cqlFile("CREATE TABLE b (id int PRIMARY KEY);", "DROP TABLE b;"))

				return dir
			},
			wantErr: migration.ErrDuplicateID,
		},
		{
			name: "unpadded ids sort numerically",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "10_b.cql", cqlFile("CREATE TABLE b (id int PRIMARY KEY);", "DROP TABLE b;"))
				writeFile(t, dir, "9_a.cql", cqlFile("CREATE TABLE a (id int PRIMARY KEY);", "DROP TABLE a;"))

				return dir
			},
			check: func(t *testing.T, ms []migration.Migration) {
				t.Helper()
				assert.Equal(t, []string{"9", "10"}, ids(ms))
			},
		},
		{
			name: "comment lines inside sections are dropped",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "001_a.cql",
					"-- +migrate Up\n-- create a\nCREATE TABLE a (id int PRIMARY KEY);\n-- +migrate Down\n-- drop a\nDROP TABLE a;\n")

				return dir
			},
			check: func(t *testing.T, ms []migration.Migration) {
				t.Helper()
				require.Len(t, ms, 1)
				assert.Equal(t, "CREATE TABLE a (id int PRIMARY KEY);", ms[0].UpScript)
				assert.Equal(t, "DROP TABLE a;", ms[0].DownScript)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := tt.setup(t)
			ms, err := migration.LoadFromDir(dir, nil)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				if tt.errText != "" {
					assert.Contains(t, err.Error(), tt.errText)
				}

				return
			}

			require.NoError(t, err)

			if tt.check != nil {
				tt.check(t, ms)
			}
		})
	}
}

func TestLoadFromDir_missingDirectory_logsWarning(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ms, err := migration.LoadFromDir(filepath.Join(t.TempDir(), "gone"), logger)

	require.NoError(t, err)
	assert.Empty(t, ms)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "migrations directory not found")
}

func TestLoadFromDir_formatErrorCarriesFilename(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "abc.cql", cqlFile("SELECT 1;", "SELECT 1;"))

	_, err := migration.LoadFromDir(dir, nil)

	var fe *migration.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "abc.cql", fe.Filename)
}

func TestDirSource_Load(t *testing.T) {
	t.Parallel()

	src := migration.NewDirSource(filepath.Join("testdata", "migrations"), nil)

	ms, err := src.Load(t.Context())

	require.NoError(t, err)
	assert.Len(t, ms, 3)
	assert.Equal(t, filepath.Join("testdata", "migrations"), src.Dir())
}

func TestParseFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		wantID   string
		wantName string
		wantErr  bool
	}{
		{filename: "001_create_users.cql", wantID: "001", wantName: "create_users"},
		{filename: "20240101120000-add_index.yaml", wantID: "20240101120000", wantName: "add_index"},
		{filename: "7.yml", wantID: "7", wantName: ""},
		{filename: "v1_users.cql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()

			id, name, err := migration.ParseFilename(tt.filename)
			if tt.wantErr {
				require.ErrorIs(t, err, migration.ErrInvalidFormat)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func cqlFile(up, down string) string {
	return migration.UpMarker + "\n" + up + "\n" + migration.DownMarker + "\n" + down + "\n"
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func ids(ms []migration.Migration) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}

	return out
}
