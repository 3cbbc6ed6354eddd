package ui

import (
	"strings"
	"unicode/utf8"
)

// Wrap greedily wraps s into lines at most width columns wide, with
// every line prefixed by indent spaces. The indent counts against the
// width. A single word longer than the available room gets its own
// line unbroken.
func Wrap(s string, width, indent int) []string {
	pad := strings.Repeat(" ", indent)
	limit := width - indent
	if limit < 1 {
		limit = 1
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	// Widths are measured in runes, not bytes, so multi-byte names do
	// not wrap early.
	var lines []string
	line := words[0]
	lineLen := utf8.RuneCountInString(line)
	for _, word := range words[1:] {
		wlen := utf8.RuneCountInString(word)
		if lineLen+1+wlen > limit {
			lines = append(lines, pad+line)
			line = word
			lineLen = wlen
			continue
		}
		line += " " + word
		lineLen += 1 + wlen
	}
	return append(lines, pad+line)
}
