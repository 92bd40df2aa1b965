package core

import (
	"maps"
	"slices"
)

// sortedKeys returns the keys of m in lexical order.
func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
