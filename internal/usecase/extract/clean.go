package extract

import (
	"regexp"
	"strings"
)

var (
	tabRe       = regexp.MustCompile(`\t`)
	multiSpace  = regexp.MustCompile(` {2,}`)
	multiNewl   = regexp.MustCompile(`\n{3,}`)
	pageDivider = regexp.MustCompile(`\n--\s*\d+\s+of\s+\d+\s*--\n`)
)

// CleanText normalizes whitespace: CRLF to LF, tabs to spaces, collapsed
// space runs, at most one blank line, trimmed non-empty lines.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = tabRe.ReplaceAllString(text, " ")
	text = multiSpace.ReplaceAllString(text, " ")
	text = multiNewl.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// stripPageDividers removes "-- N of M --" page separator lines that some
// PDF text layers embed.
func stripPageDividers(text string) string {
	return pageDivider.ReplaceAllString(text, "\n")
}
