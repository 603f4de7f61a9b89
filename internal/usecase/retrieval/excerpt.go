package retrieval

import (
	"sort"
	"strings"

	"github.com/campusply/ragcore/internal/domain"
)

// Excerpt extraction limits.
const (
	// excerptThreshold is the fragment length above which excerpting kicks in.
	excerptThreshold = 800
	// excerptContextChars is the context kept on each side of a keyword hit.
	excerptContextChars = 80
)

// extractRelevantContent trims oversized fragments down to the regions
// around keyword hits. Overlapping context windows merge; segments join
// with ellipsis markers. The excerpt replaces the fragment only when it is
// meaningfully shorter, under 70% of the original.
func extractRelevantContent(results []domain.SearchResult, query string) []domain.SearchResult {
	var keywords []string
	for _, tok := range tokenSeparators.Split(query, -1) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if len([]rune(tok)) >= 2 {
			keywords = append(keywords, tok)
		}
	}
	if len(keywords) == 0 {
		return results
	}

	out := make([]domain.SearchResult, len(results))
	for i, result := range results {
		out[i] = result
		content := []rune(result.Content)
		if len(content) <= excerptThreshold {
			continue
		}

		contentLower := []rune(strings.ToLower(result.Content))
		var positions []int
		for _, kw := range keywords {
			positions = append(positions, findAllRunes(contentLower, []rune(kw))...)
		}
		if len(positions) == 0 {
			continue
		}
		sort.Ints(positions)

		type span struct{ start, end int }
		var ranges []span
		for _, pos := range positions {
			start := pos - excerptContextChars
			if start < 0 {
				start = 0
			}
			end := pos + excerptContextChars + 20
			if end > len(content) {
				end = len(content)
			}
			if n := len(ranges); n > 0 && start <= ranges[n-1].end {
				if end > ranges[n-1].end {
					ranges[n-1].end = end
				}
			} else {
				ranges = append(ranges, span{start, end})
			}
		}

		parts := make([]string, 0, len(ranges))
		for _, r := range ranges {
			segment := strings.TrimSpace(string(content[r.start:r.end]))
			if r.start > 0 {
				segment = "..." + segment
			}
			if r.end < len(content) {
				segment = segment + "..."
			}
			parts = append(parts, segment)
		}

		excerpt := strings.Join(parts, "\n")
		if len([]rune(excerpt)) < len(content)*7/10 {
			out[i].Content = excerpt
		}
	}
	return out
}

// findAllRunes returns every start index of needle within haystack.
func findAllRunes(haystack, needle []rune) []int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return nil
	}
	var positions []int
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			positions = append(positions, i)
		}
	}
	return positions
}
