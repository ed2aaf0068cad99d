package match

import "testing"

func TestIsLooseMatchReflexive(t *testing.T) {
	for _, s := range []string{"", "a", "하", "하늘", "창조하시니라", "abc123", "여호와께서"} {
		if !IsLooseMatch(s, s) {
			t.Fatalf("expected %q to match itself", s)
		}
	}
}

func TestIsLooseMatchScriptGate(t *testing.T) {
	pairs := [][2]string{{"abc", "abd"}, {"123", "12"}, {"love", "lov"}, {"a", "ab"}}
	for _, p := range pairs {
		if IsLooseMatch(p[0], p[1]) {
			t.Fatalf("expected no loose match for latin %q / %q", p[0], p[1])
		}
	}
}

func TestIsLooseMatchRules(t *testing.T) {
	cases := []struct {
		name  string
		word  string
		token string
		want  bool
	}{
		{"suffix hasini-ra", "창조하시니라", "창조", true},
		{"suffix particle", "하늘과", "하늘", true},
		{"suffix object marker", "땅을", "땅", true},
		{"split word is not a suffix", "도륙하고", "도륙", false},
		{"remainder not a suffix", "여호와께서", "여호", false},
		{"single rune first", "하늘", "하", true},
		{"single rune last", "하늘", "늘", true},
		{"single rune homophone", "내가", "네", true},
		{"single rune homophone last", "그대네", "내", true},
		{"single rune no hit", "땅을", "하", false},
		{"single rune long word", "하나님의", "하", false},
		{"short word one edit", "하늘", "하눌", true},
		{"short word two edits", "하늘을", "하나님", false},
		{"long word two edits", "창조하셨다", "창조하시니", true},
		{"first rune differs", "하늘", "바늘", false},
		{"length gap too wide", "여호와께서", "여호", false},
		{"verse word single rune", "땅", "땅을", false},
		{"empty token", "과", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsLooseMatch(tc.word, tc.token); got != tc.want {
				t.Fatalf("IsLooseMatch(%q, %q) = %v, want %v", tc.word, tc.token, got, tc.want)
			}
		})
	}
}

func TestSuffixSetIsClosed(t *testing.T) {
	if grammaticalSuffixes.has("하고") {
		t.Fatalf("하고 must not be a suffix")
	}
	if !grammaticalSuffixes.has("하시니라") {
		t.Fatalf("expected 하시니라 in suffix set")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for oversized suffix")
		}
	}()
	newSuffixSet("하였었더라")
}
