package catalogcache

import (
	"fmt"
	"sort"
	"strings"
)

// Key derives a cache key from its parts.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// KeyFromFilter derives a deterministic key from query-filter fields:
// fields are sorted by name so equal filters always map to the same key.
func KeyFromFilter(fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, fmt.Sprintf("%s=%v", name, fields[name]))
	}

	return strings.Join(pairs, "&")
}
