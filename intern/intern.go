// Package intern canonicalizes tile names so that equal names share one handle.
package intern

import (
	"cmp"
	"slices"
	"unique"
)

// Name is an interned string. Two Names are == iff their strings are equal,
// and the comparison costs a pointer compare.
type Name = unique.Handle[string]

// Make returns the canonical handle for s.
func Make(s string) Name {
	return unique.Make(s)
}

// Compare orders names by their string value.
func Compare(a, b Name) int {
	if a == b {
		return 0
	}
	return cmp.Compare(a.Value(), b.Value())
}

// Sort sorts names in place by string value.
func Sort(names []Name) {
	slices.SortFunc(names, Compare)
}

// Strings returns the string values of names.
func Strings(names []Name) []string {
	result := make([]string, len(names))
	for i, name := range names {
		result[i] = name.Value()
	}
	return result
}
