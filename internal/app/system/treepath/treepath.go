// Package treepath builds and interprets the materialized path strings
// stored on folder and file documents.
//
// Paths are separator-joined name segments relative to the blob root
// ("ownerSegment/Root/Notes/2024"). Segments are validated names, never
// raw user-supplied paths, so no ".." normalization happens here.
package treepath

import (
	"regexp"
	"strings"
)

// Separator is the path separator used in stored paths. It matches the
// physical separator of the blob store on every supported platform because
// blob paths are always joined with forward slashes.
const Separator = "/"

// Join appends a name segment to a parent path.
func Join(parentPath, segment string) string {
	if parentPath == "" {
		return segment
	}
	return parentPath + Separator + segment
}

// Parent returns the path with the final segment removed. The parent of a
// single-segment path is the empty string.
func Parent(p string) string {
	i := strings.LastIndex(p, Separator)
	if i < 0 {
		return ""
	}
	return p[:i]
}

// Base returns the final segment of a path.
func Base(p string) string {
	i := strings.LastIndex(p, Separator)
	if i < 0 {
		return p
	}
	return p[i+len(Separator):]
}

// SubtreePattern returns a regex pattern matching exactly the given path and
// every path below it. Folder names are unconstrained strings, so every
// regex metacharacter in the path is escaped, and the pattern is anchored to
// end-of-string or an immediately following separator: "a/b" matches "a/b"
// and "a/b/c" but never the sibling "a/bc".
func SubtreePattern(p string) string {
	return "^" + regexp.QuoteMeta(p) + "(" + regexp.QuoteMeta(Separator) + "|$)"
}

// DescendantPattern is like SubtreePattern but excludes the base path
// itself: it matches only paths strictly below p.
func DescendantPattern(p string) string {
	return "^" + regexp.QuoteMeta(p) + regexp.QuoteMeta(Separator)
}

// Within reports whether p equals base or lies underneath it. This is the
// in-process equivalent of SubtreePattern, used for invariant checks without
// a database round trip.
func Within(p, base string) bool {
	if p == base {
		return true
	}
	return strings.HasPrefix(p, base+Separator)
}

// Rebase replaces the base prefix of p with newBase. The caller must have
// established Within(p, oldBase) first.
func Rebase(p, oldBase, newBase string) string {
	return newBase + p[len(oldBase):]
}
