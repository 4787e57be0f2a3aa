package js_ast

import (
	"unicode"
)

// Identifier classification approximates the Unicode ID_Start/ID_Continue
// derived properties using the general category tables in the standard
// library (Default Identifier Syntax, UAX #31) rather than vendoring the
// official derived-property table esbuild ships in a generated file that
// wasn't part of the retrieved source.

func IsIdentifier(text string) bool {
	if len(text) == 0 {
		return false
	}
	for i, codePoint := range text {
		if i == 0 {
			if !IsIdentifierStart(codePoint) {
				return false
			}
		} else if !IsIdentifierContinue(codePoint) {
			return false
		}
	}
	return true
}

// IsIdentifierUTF16 does IsIdentifier(UTF16ToString(text)) without allocating.
func IsIdentifierUTF16(text []uint16) bool {
	n := len(text)
	if n == 0 {
		return false
	}
	for i := 0; i < n; i++ {
		isStart := i == 0
		r1 := rune(text[i])
		if r1 >= 0xD800 && r1 <= 0xDBFF && i+1 < n {
			if r2 := rune(text[i+1]); r2 >= 0xDC00 && r2 <= 0xDFFF {
				r1 = (r1-0xD800)<<10 | (r2 - 0xDC00) + 0x10000
				i++
			}
		}
		if isStart {
			if !IsIdentifierStart(r1) {
				return false
			}
		} else if !IsIdentifierContinue(r1) {
			return false
		}
	}
	return true
}

func IsIdentifierStart(codePoint rune) bool {
	switch codePoint {
	case '_', '$',
		'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
		'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
		'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M',
		'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z':
		return true
	}

	// All ASCII identifier start code points are listed above
	if codePoint < 0x7F {
		return false
	}

	return unicode.IsLetter(codePoint) || unicode.Is(unicode.Nl, codePoint)
}

func IsIdentifierContinue(codePoint rune) bool {
	switch codePoint {
	case '_', '$', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
		'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
		'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
		'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M',
		'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z':
		return true
	}

	// All ASCII identifier continue code points are listed above
	if codePoint < 0x7F {
		return false
	}

	// ZWNJ and ZWJ are allowed in identifiers
	if codePoint == 0x200C || codePoint == 0x200D {
		return true
	}

	return unicode.IsLetter(codePoint) || unicode.Is(unicode.Nl, codePoint) ||
		unicode.Is(unicode.Mn, codePoint) || unicode.Is(unicode.Mc, codePoint) ||
		unicode.Is(unicode.Nd, codePoint) || unicode.Is(unicode.Pc, codePoint)
}

// LF, CR, U+2028 (LINE SEPARATOR) and U+2029 (PARAGRAPH SEPARATOR) are the
// four code points the spec treats as terminating a line. IsLineTerminator
// classifies single code points; a CR LF pair is treated as one terminator
// only by string line continuations and by the logger's line counting.
const (
	CharLineFeed       rune = 0x000A
	CharCarriageReturn rune = 0x000D
	CharLineSeparator  rune = 0x2028
	CharParagraphSep   rune = 0x2029
)

func IsLineTerminator(codePoint rune) bool {
	switch codePoint {
	case CharLineFeed, CharCarriageReturn, CharLineSeparator, CharParagraphSep:
		return true
	default:
		return false
	}
}

// IsWhitespace reports whether codePoint is in the "White Space Code Points"
// table of the ECMAScript standard (distinct from line terminators).
func IsWhitespace(codePoint rune) bool {
	switch codePoint {
	case
		0x0009, // character tabulation
		0x000B, // line tabulation
		0x000C, // form feed
		0x0020, // space
		0x00A0, // no-break space

		// Unicode "Space_Separator" code points
		0x1680, // ogham space mark
		0x2000, // en quad
		0x2001, // em quad
		0x2002, // en space
		0x2003, // em space
		0x2004, // three-per-em space
		0x2005, // four-per-em space
		0x2006, // six-per-em space
		0x2007, // figure space
		0x2008, // punctuation space
		0x2009, // thin space
		0x200A, // hair space
		0x202F, // narrow no-break space
		0x205F, // medium mathematical space
		0x3000, // ideographic space

		0xFEFF: // zero width non-breaking space (BOM)
		return true

	default:
		return false
	}
}
