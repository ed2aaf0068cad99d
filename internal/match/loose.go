package match

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxSuffixRunes  = 4
	shortWordRunes  = 4
	shortWordEdits  = 1
	longWordEdits   = 2
	maxLengthGap    = 2
	singleRuneLimit = 3
)

// runeSet is a closed set of runes.
type runeSet map[rune]struct{}

func (s runeSet) has(r rune) bool {
	_, ok := s[r]
	return ok
}

// suffixSet is a closed set of word endings.
type suffixSet map[string]struct{}

func (s suffixSet) has(v string) bool {
	_, ok := s[v]
	return ok
}

// grammaticalSuffixes are endings and particles a verse word may carry that
// casual speech drops. "하고" is not one of them; "도륙"+"하고" is matched as a
// split word.
var grammaticalSuffixes = newSuffixSet(
	// copula / declarative
	"니라", "이니라", "하니라", "하시니라", "시니라", "이라", "이다", "이요",
	"더라", "이더라", "였더라", "하였더라", "리라", "하리라",
	// connective "and"
	"고", "며", "이며", "이고", "하며", "하시며", "하시고", "하였고",
	// "so", "because", "so that"
	"니", "이니", "하니", "하시니", "하매", "하시매", "하여", "하사", "하되", "하시되",
	"하였으니", "므로", "하므로", "때문에", "도록", "하도록", "하게",
	// quotative / imperative
	"라", "라고", "이라고", "하라", "하라고",
	// case particles
	"와", "과", "을", "를", "은", "는", "이", "가", "에", "의", "도", "로",
	"으로", "에서", "에게",
)

// homophones are short pronoun forms speech recognition confuses.
var homophones = runeSet{'내': {}, '네': {}}

func newSuffixSet(values ...string) suffixSet {
	s := make(suffixSet, len(values))
	for _, v := range values {
		n := utf8.RuneCountInString(v)
		if n == 0 || n > maxSuffixRunes || !ContainsHangul(v) {
			panic(fmt.Sprintf("match: invalid suffix %q", v))
		}
		s[v] = struct{}{}
	}
	return s
}

// IsLooseMatch reports whether a normalized verse word and a normalized
// recognized token name the same word. Rules are tried in order and the first
// that holds wins.
func IsLooseMatch(verseWord, token string) bool {
	if stripSpaces(verseWord) == stripSpaces(token) {
		return true
	}
	if !ContainsHangul(verseWord) && !ContainsHangul(token) {
		return false
	}

	w := []rune(verseWord)
	t := []rune(token)

	if matchesWithSuffix(verseWord, token, len(w), len(t)) {
		return true
	}

	if len(t) == 1 {
		return matchesSingleRune(w, t[0])
	}

	if len(w) < 2 || len(t) < 2 {
		return false
	}
	if w[0] != t[0] {
		return false
	}
	gap := len(w) - len(t)
	if gap < 0 {
		gap = -gap
	}
	if gap > maxLengthGap {
		return false
	}
	limit := longWordEdits
	if max(len(w), len(t)) <= shortWordRunes {
		limit = shortWordEdits
	}
	return Levenshtein(w, t) <= limit
}

func matchesWithSuffix(verseWord, token string, wordLen, tokenLen int) bool {
	extra := wordLen - tokenLen
	if tokenLen == 0 || extra < 1 || extra > maxSuffixRunes {
		return false
	}
	rest, ok := strings.CutPrefix(verseWord, token)
	if !ok {
		return false
	}
	return grammaticalSuffixes.has(rest)
}

func matchesSingleRune(word []rune, ch rune) bool {
	if len(word) == 0 || len(word) > singleRuneLimit {
		return false
	}
	first, last := word[0], word[len(word)-1]
	if first == ch || last == ch {
		return true
	}
	return homophones.has(ch) && (homophones.has(first) || homophones.has(last))
}

func stripSpaces(s string) string {
	if !strings.ContainsRune(s, ' ') {
		return s
	}
	return strings.ReplaceAll(s, " ", "")
}
