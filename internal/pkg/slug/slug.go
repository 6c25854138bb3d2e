// internal/pkg/slug/slug.go
package slug

import (
	"strings"
	"unicode"
)

// Make derives a URL-safe slug from a display name: lowercase, spaces
// collapsed to single hyphens, everything else non-alphanumeric dropped.
func Make(name string) string {
	var b strings.Builder
	lastHyphen := true // leading hyphens are dropped

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
