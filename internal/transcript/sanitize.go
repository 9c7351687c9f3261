package transcript

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize turns entry text into inert display text. Terminal escape
// sequences are removed and every other control character except newline
// and tab is dropped, so neither the user nor the service can drive the
// terminal through a message.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			return '\n'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}

// Snippet returns a single-line excerpt of s at most width cells wide.
func Snippet(s string, width int) string {
	s = strings.Join(strings.Fields(Sanitize(s)), " ")
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
