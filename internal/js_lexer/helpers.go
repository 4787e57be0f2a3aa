package js_lexer

import "github.com/jsrun/jsengine/internal/helpers"

// Utf16ToStringHelper and StringToUtf16Helper let the parser convert
// between the UTF-16 string values tokens carry and the Go strings used for
// module specifiers, property names synthesized from keywords, and the like.
func Utf16ToStringHelper(text []uint16) string { return helpers.UTF16ToString(text) }

func StringToUtf16Helper(text string) []uint16 { return helpers.StringToUTF16(text) }

// KeywordText reports the source text of a reserved word token kind, used
// when a reserved word appears in property-name position ({ typeof: 1 }).
func KeywordText(kind T) (string, bool) {
	for text, k := range Keywords {
		if k == kind {
			return text, true
		}
	}
	return "", false
}
