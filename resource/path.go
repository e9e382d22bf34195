package resource

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// FamilyOf derives the REST resource family from a record name:
// "Facility" -> "facilities", "PendingListing" -> "pending-listings".
// The family doubles as the cache key prefix, so it must contain only
// URL-safe lowercase characters.
func FamilyOf(name string) string {
	return inflection.Plural(toKebab(name))
}

// toKebab converts the provided string to kebab-case using ASCII-aware
// rules. We keep this local so we can strip punctuation that can show up in
// reflected type names; stray characters would break both the URL path and
// the prefix-based cache invalidation that shares the family string.
func toKebab(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	lastDash := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case unicode.IsUpper(r):
			if b.Len() > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if (unicode.IsLower(prev) || unicode.IsDigit(prev) || nextLower) && !lastDash {
					b.WriteByte('-')
					lastDash = true
				}
			}
			b.WriteRune(unicode.ToLower(r))
			lastDash = false

		case unicode.IsLower(r):
			b.WriteRune(r)
			lastDash = false

		case unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false

		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}

		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

// listPath builds the collection endpoint for a family.
func listPath(family string, p Params) string {
	return "/" + family + "/all" + p.QueryString()
}

// itemPath builds the single-item endpoint for a family.
func itemPath(family, id string) string {
	return "/" + family + "/" + id
}

// statusPath builds the status-transition endpoint for a family.
func statusPath(family, id string) string {
	return "/" + family + "/update-status/" + id
}
