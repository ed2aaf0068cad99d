package match

import (
	"reflect"
	"testing"

	"github.com/bible365/bible365/internal/model"
)

func TestMatchTokensToVerseWords(t *testing.T) {
	cases := []struct {
		name   string
		words  []string
		tokens []string
		want   []int
	}{
		{"exact", []string{"하늘", "과", "땅을"}, []string{"하늘", "과", "땅을"}, []int{0, 1, 2}},
		{"split merge", []string{"도륙하고"}, []string{"도륙", "하고"}, []int{0}},
		{"merge consumes both", []string{"도륙하고", "땅을"}, []string{"도륙", "하고", "땅을"}, []int{0, 1}},
		{"tokens exhausted", []string{"하늘", "과", "땅을"}, []string{"하늘"}, []int{0}},
		{"no tokens", []string{"하늘"}, nil, []int{}},
		{"leading noise is not retried", []string{"하늘", "과", "땅을"}, []string{"음", "하늘", "과", "땅을"}, []int{}},
		{"suffix dropped", []string{"태초에", "하나님이", "천지를", "창조하시니라"}, []string{"태초에", "하나님이", "천지를", "창조"}, []int{0, 1, 2, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MatchTokensToVerseWords(tc.words, tc.tokens).Sorted()
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("matched %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHighlightNextOccurrence(t *testing.T) {
	words := []string{"하나님이", "", "하나님이"}
	highlighted := model.IndexSetOf(0)

	idx, ok := HighlightNextOccurrence(words, highlighted, "하나님이")
	if !ok || idx != 2 {
		t.Fatalf("expected index 2, got %d %v", idx, ok)
	}
	if _, ok := HighlightNextOccurrence(words, highlighted, "하나님이"); ok {
		t.Fatalf("expected no further highlight")
	}
	if _, ok := HighlightNextOccurrence(words, highlighted, ""); ok {
		t.Fatalf("expected empty token ignored")
	}
}

func TestMatcherUtteranceAndPartial(t *testing.T) {
	m := NewMatcher("태초에 하나님이 천지를 창조하시니라.")
	if m.WordCount() != 4 {
		t.Fatalf("expected 4 words, got %d", m.WordCount())
	}
	got := m.MatchUtterance("태초에, 하나님이 천지를 창조.").Sorted()
	if !reflect.DeepEqual(got, []int{0, 1, 2, 3}) {
		t.Fatalf("unexpected utterance match: %v", got)
	}

	highlighted := model.IndexSet{}
	if added := m.ApplyPartial("천지를 태초에", highlighted); added != 2 {
		t.Fatalf("expected 2 partial highlights, got %d", added)
	}
	if !highlighted.Has(0) || !highlighted.Has(2) {
		t.Fatalf("unexpected partial highlights: %v", highlighted.Sorted())
	}
}
