package store

import (
	"strings"
	"unicode"
)

// Tokenize splits text with code-aware rules and returns lowercased tokens.
//
// Identifiers are split on camelCase boundaries first:
//   - "getUserById" -> ["get", "user", "by", "id"]
//   - "HTTPHandler" -> ["http", "handler"]
//
// Any rune that is not a letter, digit or whitespace becomes a separator,
// so snake_case and dotted names split as well.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Fields(normalize(splitCamelCase(text)))
}

// splitCamelCase inserts a space at lower->Upper boundaries and before the
// last capital of an acronym that starts a new word ("HTTPServer" -> "HTTP Server").
func splitCamelCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 8)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextIsLower) {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalize lowercases s and replaces separators with spaces.
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)
}
