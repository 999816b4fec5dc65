package migration

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Section markers for plain-script (.cql) migrations.
const (
	UpMarker   = "-- +migrate Up"
	DownMarker = "-- +migrate Down"

	commentPrefix = "--"
)

// Recognized file extensions.
const (
	ExtCQL  = ".cql"
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
)

// idPattern captures the leading digit run of a filename.
var idPattern = regexp.MustCompile(`^(\d+)`) //nolint:gochecknoglobals // compiled once

// maxLineSize bounds a single line in a .cql file.
const maxLineSize = 1 << 20

// DirSource loads migrations from a directory on every call to Load.
type DirSource struct {
	dir    string
	logger *slog.Logger
}

// NewDirSource creates a Source backed by dir. A nil logger discards output.
func NewDirSource(dir string, logger *slog.Logger) *DirSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &DirSource{dir: dir, logger: logger}
}

// Dir returns the directory this source reads from.
func (s *DirSource) Dir() string { return s.dir }

// Load reads all migrations from the directory.
func (s *DirSource) Load(_ context.Context) ([]Migration, error) {
	return LoadFromDir(s.dir, s.logger)
}

// LoadFromDir reads every .cql, .yaml and .yml file in dir and returns the
// migrations sorted by numeric id. A missing directory yields an empty
// result and a warning. Any malformed file aborts the whole load.
func LoadFromDir(dir string, logger *slog.Logger) ([]Migration, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("migrations directory not found", "dir", dir)

			return nil, nil
		}

		return nil, fmt.Errorf("reading migrations directory %s: %w", dir, err)
	}

	var migrations []Migration

	for _, entry := range entries {
		if entry.IsDir() || !IsMigrationFile(entry.Name()) {
			continue
		}

		m, err := readMigration(dir, entry.Name())
		if err != nil {
			return nil, err
		}

		migrations = append(migrations, m)
	}

	sorted := Sort(migrations)
	if err := CheckDuplicates(sorted); err != nil {
		return nil, err
	}

	logger.Debug("loaded migrations", "dir", dir, "count", len(sorted))

	return sorted, nil
}

// IsMigrationFile reports whether name has a recognized migration extension.
func IsMigrationFile(name string) bool {
	switch filepath.Ext(name) {
	case ExtCQL, ExtYAML, ExtYML:
		return true
	default:
		return false
	}
}

// ParseFilename splits a migration filename into its id and descriptive name.
func ParseFilename(filename string) (id, name string, err error) {
	id = idPattern.FindString(filename)
	if id == "" {
		return "", "", formatErr(filename, "filename must start with a numeric id", nil)
	}

	name = strings.TrimSuffix(filename[len(id):], filepath.Ext(filename))
	name = strings.TrimLeft(name, "_-. ")

	return id, name, nil
}

func readMigration(dir, filename string) (Migration, error) {
	id, name, err := ParseFilename(filename)
	if err != nil {
		return Migration{}, err
	}

	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return Migration{}, fmt.Errorf("reading migration file %s: %w", filename, err)
	}

	var up, down string

	if filepath.Ext(filename) == ExtCQL {
		up, down, err = parsePlainScript(filename, string(data))
	} else {
		up, down, err = parseStructured(filename, data)
	}

	if err != nil {
		return Migration{}, err
	}

	return Migration{
		ID:         id,
		Name:       name,
		Filename:   filename,
		UpScript:   up,
		DownScript: down,
	}, nil
}

// parsePlainScript collects the lines following each section marker.
// Comment lines, including the markers, are dropped.
func parsePlainScript(filename, content string) (string, string, error) {
	var up, down strings.Builder

	var current *strings.Builder

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, UpMarker):
			current = &up
			continue
		case strings.HasPrefix(trimmed, DownMarker):
			current = &down
			continue
		case strings.HasPrefix(trimmed, commentPrefix):
			continue
		}

		if current != nil {
			current.WriteString(line)
			current.WriteByte('\n')
		}
	}

	if err := scanner.Err(); err != nil {
		return "", "", formatErr(filename, "reading script", err)
	}

	upScript := strings.TrimSpace(up.String())
	if upScript == "" {
		return "", "", formatErr(filename, "missing or empty \""+UpMarker+"\" section", nil)
	}

	downScript := strings.TrimSpace(down.String())
	if downScript == "" {
		return "", "", formatErr(filename, "missing or empty \""+DownMarker+"\" section", nil)
	}

	return upScript, downScript, nil
}

// structuredFile is the YAML form of a migration.
type structuredFile struct {
	Up   *string `yaml:"up"`
	Down *string `yaml:"down"`
}

func parseStructured(filename string, data []byte) (string, string, error) {
	var doc structuredFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", "", formatErr(filename, "parsing YAML", err)
	}

	if doc.Up == nil || strings.TrimSpace(*doc.Up) == "" {
		return "", "", formatErr(filename, "missing \"up\" script", nil)
	}

	if doc.Down == nil || strings.TrimSpace(*doc.Down) == "" {
		return "", "", formatErr(filename, "missing \"down\" script", nil)
	}

	return strings.TrimSpace(*doc.Up), strings.TrimSpace(*doc.Down), nil
}
