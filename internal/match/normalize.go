// Package match aligns recognized speech against verse words.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	hangulFirst = 0xAC00
	hangulLast  = 0xD7A3
)

func isHangulSyllable(r rune) bool {
	return r >= hangulFirst && r <= hangulLast
}

func isTokenSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == '.'
}

// Tokenize splits recognized speech on whitespace, commas and periods.
func Tokenize(text string) []string {
	parts := strings.FieldsFunc(text, isTokenSeparator)
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitWords splits verse text on whitespace only, so punctuation stays
// attached to its word.
func SplitWords(text string) []string {
	return strings.Fields(text)
}

// Normalize folds a word to its comparable form: NFC composed, lowercased,
// with everything but Hangul syllables, letters and digits removed.
func Normalize(word string) string {
	lower := strings.ToLower(norm.NFC.String(word))
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if isHangulSyllable(r) || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeAll normalizes each word, keeping positions (empty results stay).
func NormalizeAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = Normalize(w)
	}
	return out
}

// NormalizeTokens normalizes tokens and drops the ones that become empty.
func NormalizeTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if n := Normalize(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// ContainsHangul reports whether s has at least one Hangul syllable.
func ContainsHangul(s string) bool {
	for _, r := range s {
		if isHangulSyllable(r) {
			return true
		}
	}
	return false
}
