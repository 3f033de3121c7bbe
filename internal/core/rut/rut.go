// Package rut canonicalizes Chilean tax identifiers (RUT) so records coming
// from different sources can be joined on a common key.
package rut

import "strings"

// Missing is the sentinel returned for null/empty identifiers. Using a
// sentinel instead of the empty string keeps missing ids from joining
// against each other.
const Missing = "SIN RUT"

// Normalize returns the canonical form of a tax identifier: separators
// (dots, dashes, whitespace) removed and letters upper-cased. Two
// identifiers that differ only by separators or case normalize equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '.', '-', ' ', '\t', '\n', '\r':
			continue
		}
		b.WriteRune(r)
	}

	out := strings.ToUpper(b.String())
	if out == "" {
		return Missing
	}
	return out
}

// IsMissing reports whether a normalized identifier is the missing sentinel.
func IsMissing(s string) bool {
	return s == Missing || s == ""
}
