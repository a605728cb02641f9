package text

import (
	"regexp"
	"strings"
	"unicode"
)

// Script is a target writing system: the letters an answer may contain plus digits, a fixed
// punctuation set and line breaks.
type Script struct {
	name       string
	letters    *unicode.RangeTable
	disallowed *regexp.Regexp
}

// Hebrew is the default target script.
var Hebrew = NewScript("hebrew", unicode.Hebrew, `\x{0590}-\x{05FF}`)

// NewScript builds a Script from a rune table and the equivalent regexp character-class body.
func NewScript(name string, letters *unicode.RangeTable, class string) *Script {
	return &Script{
		name:       name,
		letters:    letters,
		disallowed: regexp.MustCompile(`[^` + class + `0-9 .,;:!?()\[\]{}"'\x{05F3}\x{05F4}/\n-]+`),
	}
}

func (s *Script) Name() string { return s.name }

// Restrict replaces every run of characters outside the allow-list with a space and normalizes
// whitespace. Only meant for output text.
func (s *Script) Restrict(v string) string {
	return NormalizeWhitespace(s.disallowed.ReplaceAllString(v, " "))
}

// Contains reports whether v has at least one letter of the script.
func (s *Script) Contains(v string) bool {
	return strings.IndexFunc(v, func(r rune) bool {
		return unicode.IsLetter(r) && unicode.Is(s.letters, r)
	}) >= 0
}

// IsNumeric reports whether v is non-empty and consists of digits with separators only.
func IsNumeric(v string) bool {
	hasDigit := false
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '.' || r == ',' || r == ' ' || r == '-':
		default:
			return false
		}
	}
	return hasDigit
}
