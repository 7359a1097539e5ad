// Package cachekey encodes and decodes translation cache keys.
//
// A key is the triple (locale, namespace, key) serialized as
// "locale[:namespace[:key]]". The ':' separator is not escaped; segments
// must not contain it. Normalize enforces the allowed character set.
package cachekey

import (
	"strings"
)

// MaxLength is the longest serialized key Validate accepts.
const MaxLength = 256

// Separator joins key segments.
const Separator = ":"

// Wildcard matches any segment in a pattern built by CreatePattern.
const Wildcard = "*"

// Key is a decoded cache key. Namespace and Name are empty when the
// serialized form carried fewer than three segments.
type Key struct {
	Locale    string
	Namespace string
	Name      string
}

// Create joins the non-empty parts of a key triple with the separator.
// Parts must not contain the separator themselves; Create does not escape
// it and a part containing ':' will not round-trip through Parse.
func Create(locale, namespace, name string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{locale, namespace, name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, Separator)
}

// Parse splits a serialized key into its triple. The first segment is
// always the locale, even when empty: an empty input decodes to a Key with
// an empty locale rather than failing, and Validate is the place to reject
// it. Segments beyond the third are dropped.
func Parse(key string) Key {
	segments := strings.Split(key, Separator)

	k := Key{Locale: segments[0]}
	if len(segments) > 1 {
		k.Namespace = segments[1]
	}
	if len(segments) > 2 {
		k.Name = segments[2]
	}
	return k
}

// String re-encodes the key triple.
func (k Key) String() string {
	return Create(k.Locale, k.Namespace, k.Name)
}

// Validate reports whether a serialized key has an acceptable length,
// between 1 and MaxLength bytes inclusive.
func Validate(key string) bool {
	return len(key) > 0 && len(key) <= MaxLength
}

// Normalize lowercases and trims a key and replaces every character
// outside [a-z0-9:_-] with an underscore.
func Normalize(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))

	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ':', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// CreatePattern builds a three-segment wildcard pattern for bulk
// invalidation. Omitted parts become wildcards and the key segment is
// always a wildcard, so "en", "common" yields "en:common:*".
func CreatePattern(locale, namespace string) string {
	if locale == "" {
		locale = Wildcard
	}
	if namespace == "" {
		namespace = Wildcard
	}
	return strings.Join([]string{locale, namespace, Wildcard}, Separator)
}

// MatchPattern reports whether a serialized key matches a pattern built by
// CreatePattern. Each pattern segment must equal the corresponding key
// segment or be the wildcard; a key with fewer segments than the pattern
// matches when all its segments do, so "en:common:*" matches "en:common".
func MatchPattern(pattern, key string) bool {
	pseg := strings.Split(pattern, Separator)
	kseg := strings.Split(key, Separator)

	if len(kseg) > len(pseg) {
		return false
	}
	for i, ks := range kseg {
		if pseg[i] != Wildcard && pseg[i] != ks {
			return false
		}
	}
	for _, ps := range pseg[len(kseg):] {
		if ps != Wildcard {
			return false
		}
	}
	return true
}
