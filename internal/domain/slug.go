package domain

import (
	"strings"
	"unicode"
)

// Slugify converts a collection name into a URL-safe public slug:
//   - lowercase
//   - non-word characters stripped (letters, digits, spaces and hyphens kept)
//   - spaces become hyphens
//   - runs of hyphens collapse into one
//   - leading/trailing hyphens trimmed
//
// Uniqueness per owner is the caller's concern (a numeric suffix is appended
// until the slug is free).
func Slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}

	// Collapse hyphen runs.
	var out strings.Builder
	out.Grow(b.Len())
	prevHyphen := false
	for _, r := range b.String() {
		if r == '-' {
			if prevHyphen {
				continue
			}
			prevHyphen = true
		} else {
			prevHyphen = false
		}
		out.WriteRune(r)
	}

	return strings.Trim(out.String(), "-")
}
