package syncapi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// ParseVersion parses the server's "v{N}" version string into an int. It is
// exported so the sync package can interpret a PushStartResponse's target
// version without a second wire type.
func ParseVersion(v string) (int, error) {
	v = strings.TrimPrefix(v, "v")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("syncapi: parse version %q: %w", v, err)
	}
	return n, nil
}

// parseVersion is the unexported alias used within this package.
func parseVersion(v string) (int, error) { return ParseVersion(v) }

// formatVersion renders n in the server's "v{N}" convention.
func formatVersion(n int) string {
	return fmt.Sprintf("v%d", n)
}

func sortedKeys(s mapset.Set[string]) []string {
	keys := s.ToSlice()
	sort.Strings(keys)
	return keys
}
