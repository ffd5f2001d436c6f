package bubbletea

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize makes model output safe to draw in a terminal. ANSI escape
// sequences are stripped, CRLF and lone CR become LF, and control characters
// other than tab and newline are dropped. Only display paths use it; saved
// code is written as returned.
func Sanitize(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || (r > 0x1F && r != 0x7F) {
			return r
		}
		return -1
	}, s)
}
