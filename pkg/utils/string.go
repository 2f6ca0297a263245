package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeReason composes the text to NFC, drops invisible format characters
// such as zero-width spaces, collapses runs of spaces and tabs on each line,
// drops blank leading and trailing lines and unifies line endings to \n.
func NormalizeReason(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	if composed, _, err := transform.String(transform.Chain(
		norm.NFC,
		runes.Remove(runes.In(unicode.Cf)),
	), s); err == nil {
		s = composed
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
