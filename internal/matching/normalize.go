// Package matching decides whether an accessory code is still available on a
// unit by reading the unit's remark history, and picks which unit a work
// order should draw from.
package matching

import "strings"

// Normalize canonicalizes an accessory code for comparison: all whitespace
// is removed and the result is lower-cased, so "part A", "partA" and
// " PartA " compare equal.
func Normalize(code string) string {
	return strings.ToLower(strings.Join(strings.Fields(code), ""))
}

// SameCode reports whether two accessory codes are equal after normalization.
func SameCode(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
