package match

import "github.com/bible365/bible365/internal/model"

// MatchTokensToVerseWords walks verse words and tokens in lockstep with a
// single token cursor. For each verse word it tries the current token, then
// the current token joined with the next one (consuming two). When neither
// matches, one token is dropped and the walk moves on to the next word; the
// same word is never retried.
func MatchTokensToVerseWords(verseWords, tokens []string) model.IndexSet {
	matched := model.IndexSet{}
	ti := 0
	for i, word := range verseWords {
		if ti >= len(tokens) {
			break
		}
		if IsLooseMatch(word, tokens[ti]) {
			matched.Add(i)
			ti++
			continue
		}
		if ti+1 < len(tokens) && IsLooseMatch(word, tokens[ti]+tokens[ti+1]) {
			matched.Add(i)
			ti += 2
			continue
		}
		ti++
	}
	return matched
}

// HighlightNextOccurrence highlights the first not-yet-highlighted verse word
// that loosely matches token. It returns the index and true when one was added.
func HighlightNextOccurrence(verseWords []string, highlighted model.IndexSet, token string) (int, bool) {
	if token == "" {
		return -1, false
	}
	for i, word := range verseWords {
		if highlighted.Has(i) || word == "" {
			continue
		}
		if IsLooseMatch(word, token) {
			highlighted.Add(i)
			return i, true
		}
	}
	return -1, false
}

// Matcher holds the normalized words of one verse.
type Matcher struct {
	words      []string
	normalized []string
}

// NewMatcher prepares a matcher for the given verse text.
func NewMatcher(verseText string) *Matcher {
	words := SplitWords(verseText)
	return &Matcher{words: words, normalized: NormalizeAll(words)}
}

// Words returns the verse words as displayed.
func (m *Matcher) Words() []string {
	return m.words
}

// WordCount returns the number of verse words.
func (m *Matcher) WordCount() int {
	return len(m.words)
}

// MatchUtterance aligns a final utterance against the verse.
func (m *Matcher) MatchUtterance(text string) model.IndexSet {
	tokens := NormalizeTokens(Tokenize(text))
	return MatchTokensToVerseWords(m.normalized, tokens)
}

// ApplyPartial highlights at most one new word per token of a partial
// transcript and returns how many were added.
func (m *Matcher) ApplyPartial(text string, highlighted model.IndexSet) int {
	added := 0
	for _, token := range NormalizeTokens(Tokenize(text)) {
		if _, ok := HighlightNextOccurrence(m.normalized, highlighted, token); ok {
			added++
		}
	}
	return added
}
