package database

import (
	"fmt"
	"regexp"
)

// identPattern matches unquoted CQL names; Cassandra caps table names at 48 chars.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,47}$`) //nolint:gochecknoglobals // compiled once

// ValidateIdentifier rejects names that would need quoting or could inject CQL.
func ValidateIdentifier(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}

	return nil
}

// QualifiedName returns keyspace.table after validating both parts.
func QualifiedName(keyspace, table string) (string, error) {
	if err := ValidateIdentifier(keyspace); err != nil {
		return "", fmt.Errorf("keyspace: %w", err)
	}

	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("table: %w", err)
	}

	return keyspace + "." + table, nil
}
