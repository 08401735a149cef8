// Package sanitizer normalizes the free-text fields that reach the ledger.
package sanitizer

import (
	"strings"
	"unicode"
)

const maxNoteLength = 500

// SanitizeNote trims, collapses internal whitespace, strips control
// characters, and caps the length of a free-text note.
func SanitizeNote(value string) string {
	var b strings.Builder
	b.Grow(len(value))

	lastWasSpace := false
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
			}
			lastWasSpace = true
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}

	cleaned := strings.TrimSpace(b.String())
	if len(cleaned) > maxNoteLength {
		cleaned = cleaned[:maxNoteLength]
	}
	return cleaned
}
