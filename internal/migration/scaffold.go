package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	minIDWidth  = 3
	maxNameSize = 200
)

var validName = regexp.MustCompile(`^[a-z0-9_]+$`) //nolint:gochecknoglobals // compiled once

// ScaffoldOptions controls the file written by Scaffold.
type ScaffoldOptions struct {
	Structured bool      // write a .yaml file instead of .cql
	Now        time.Time // creation time recorded in the header
}

// Scaffold creates an empty migration file in dir with the next free id and
// returns its path. The id is one greater than the highest existing id and
// zero-padded to at least three digits.
func Scaffold(dir, name string, opts ScaffoldOptions) (string, error) {
	clean, err := sanitizeName(name)
	if err != nil {
		return "", err
	}

	id, err := nextID(dir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating migrations directory %s: %w", dir, err)
	}

	ext := ExtCQL
	if opts.Structured {
		ext = ExtYAML
	}

	path := filepath.Join(dir, id+"_"+clean+ext)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s: %w", path, ErrFileExists)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	title := cases.Title(language.English).String(strings.ReplaceAll(clean, "_", " "))

	var body string
	if opts.Structured {
		body = fmt.Sprintf("# %s\n# Created: %s\nup: |\n  \ndown: |\n  \n", title, now.UTC().Format(time.RFC3339))
	} else {
		body = fmt.Sprintf("-- %s\n-- Created: %s\n\n%s\n\n\n%s\n\n", title, now.UTC().Format(time.RFC3339), UpMarker, DownMarker)
	}

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil { //nolint:gosec // migration files are not secrets
		return "", fmt.Errorf("writing migration file %s: %w", path, err)
	}

	return path, nil
}

func sanitizeName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer("-", "_", " ", "_").Replace(name)
	name = strings.Trim(name, "_")

	if len(name) > maxNameSize {
		name = name[:maxNameSize]
	}

	if !validName.MatchString(name) {
		return "", fmt.Errorf("invalid migration name %q: use letters, digits and underscores", name)
	}

	return name, nil
}

// nextID scans dir for existing migration ids. Files that do not start with
// digits are ignored here; LoadFromDir reports them.
func nextID(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("reading migrations directory %s: %w", dir, err)
	}

	highest := "0"
	width := minIDWidth

	for _, entry := range entries {
		if entry.IsDir() || !IsMigrationFile(entry.Name()) {
			continue
		}

		id := idPattern.FindString(entry.Name())
		if id == "" {
			continue
		}

		width = max(width, len(id))

		if CompareIDs(id, highest) > 0 {
			highest = id
		}
	}

	n, err := strconv.ParseUint(trimZeros(highest), 10, 64)
	if err != nil {
		return "", fmt.Errorf("migration id %s is too large to increment: %w", highest, err)
	}

	return fmt.Sprintf("%0*d", width, n+1), nil
}
