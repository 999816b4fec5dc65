package migration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Migration is a single schema change loaded from disk or registered in code.
type Migration struct {
	ID         string // leading digit run of Filename, e.g. "001"
	Name       string // descriptive part of Filename
	Filename   string // "001_create_users.cql"
	UpScript   string
	DownScript string
}

// Checksum returns the SHA-256 hex digest of the up-script.
func (m *Migration) Checksum() string {
	return ComputeChecksum(m.UpScript)
}

// Source supplies the ordered list of migration definitions.
// Implementations must return migrations sorted by ascending id.
type Source interface {
	Load(ctx context.Context) ([]Migration, error)
}

// ComputeChecksum returns the SHA-256 hex digest of the given script.
func ComputeChecksum(script string) string {
	h := sha256.Sum256([]byte(script))

	return hex.EncodeToString(h[:])
}
