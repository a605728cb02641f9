// Package text holds the pure string transformations used on retrieved content and model output.
package text

import (
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	styleBlock  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptBlock = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	anyTag      = regexp.MustCompile(`(?s)<[^>]+>`)
)

// NormalizeWhitespace collapses every whitespace run into a single space and trims both ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripMarkup removes style and script blocks with their content, then every remaining tag.
func StripMarkup(s string) string {
	s = styleBlock.ReplaceAllString(s, " ")
	s = scriptBlock.ReplaceAllString(s, " ")
	s = anyTag.ReplaceAllString(s, " ")
	return NormalizeWhitespace(s)
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Chunk yields overlapping slices of the whitespace-normalized text, each at most size runes,
// stepping by size-overlap. Text that fits in one chunk yields itself; empty text yields nothing.
// The sequence can be ranged over any number of times.
func Chunk(s string, size, overlap int) iter.Seq[string] {
	return func(yield func(string) bool) {
		runes := []rune(NormalizeWhitespace(s))
		if len(runes) == 0 || size <= 0 {
			return
		}
		if overlap < 0 || overlap >= size {
			overlap = 0
		}

		for start := 0; start < len(runes); {
			end := min(start+size, len(runes))
			if !yield(string(runes[start:end])) {
				return
			}
			if end == len(runes) {
				return
			}
			start = end - overlap
		}
	}
}
