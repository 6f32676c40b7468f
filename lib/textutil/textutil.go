package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Compact drops every whitespace character in s.
func Compact(s string) string {
	return whitespaceRegex.ReplaceAllString(s, "")
}

// NormalizeIdentifier is Compact and upper-cased, for identifiers users type
// in such as hall ticket numbers.
func NormalizeIdentifier(s string) string {
	return strings.ToUpper(Compact(s))
}
