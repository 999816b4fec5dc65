package migration

import (
	"fmt"
	"sort"
	"strings"
)

// Sort returns a new slice of migrations ordered by the numeric value of
// their id, so "9" precedes "10" regardless of zero padding. Filename breaks
// ties. The input is not mutated.
func Sort(migrations []Migration) []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)

	sort.SliceStable(sorted, func(i, j int) bool {
		if c := CompareIDs(sorted[i].ID, sorted[j].ID); c != 0 {
			return c < 0
		}

		return sorted[i].Filename < sorted[j].Filename
	})

	return sorted
}

// CompareIDs compares two digit-only ids by numeric value without parsing
// them into a fixed-width integer. It returns -1, 0 or +1.
func CompareIDs(a, b string) int {
	a, b = trimZeros(a), trimZeros(b)

	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}

		return 1
	}

	return strings.Compare(a, b)
}

// CheckDuplicates returns a FormatError if two adjacent migrations in a
// sorted slice share the same numeric id.
func CheckDuplicates(sorted []Migration) error {
	for i := 1; i < len(sorted); i++ {
		if CompareIDs(sorted[i-1].ID, sorted[i].ID) == 0 {
			return formatErr(sorted[i].Filename,
				fmt.Sprintf("id %s already used by %s", sorted[i].ID, sorted[i-1].Filename),
				ErrDuplicateID)
		}
	}

	return nil
}

func trimZeros(id string) string {
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" {
		return "0"
	}

	return trimmed
}
