// Package security holds input sanitising helpers.
package security

import "strings"

// maxFilenameLen bounds sanitised names to keep output paths short.
const maxFilenameLen = 128

// SanitizeFilename makes a safe file name from an arbitrary string such as a
// plot title or a user-supplied output name. Characters other than ASCII
// letters, digits, dot, underscore and dash become an underscore, runs of
// underscores collapse, and leading or trailing dots and underscores are
// trimmed. An empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
