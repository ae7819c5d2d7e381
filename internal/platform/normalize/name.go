// Package normalize derives matching keys from scraped person and club
// names. Raw names arrive with inconsistent casing, separators and token
// order (PDFs flip "First Last" to "Last First"), so identity lookups go
// through the keys produced here rather than the raw strings.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Swedish)

// Sanitize produces the display form of a raw name: trimmed, single-spaced,
// title-cased per word ("harry hamrén" -> "Harry Hamrén").
func Sanitize(name string) string {
	fields := strings.Fields(name)
	for i, f := range fields {
		fields[i] = titleCaser.String(f)
	}
	return strings.Join(fields, " ")
}

// Key produces the canonical matching form: case-folded, separator
// characters unified to spaces, whitespace collapsed.
func Key(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch r {
		case '-', '_', ',', '.', '\'':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NameKeys returns the normalized key plus both token orientations, so a
// scraped "Lennebratt Nils" still matches a registered "Nils Lennebratt".
// Single-token names yield one key.
func NameKeys(name string) []string {
	key := Key(name)
	parts := strings.Fields(key)
	if len(parts) <= 1 {
		if key == "" {
			return nil
		}
		return []string{key}
	}

	seen := map[string]struct{}{key: {}}
	keys := []string{key}
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], " ")
		suffix := strings.Join(parts[i:], " ")
		for _, candidate := range []string{prefix + " " + suffix, suffix + " " + prefix} {
			if _, ok := seen[candidate]; ok {
				continue
			}
			seen[candidate] = struct{}{}
			keys = append(keys, candidate)
		}
	}
	return keys
}
