package progressui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bible365/bible365/internal/model"
)

type fakeSource struct {
	books map[string]model.BookProgressSummary
}

func (f fakeSource) BookSummary(code string, _ model.Mode) model.BookProgressSummary {
	return f.books[code]
}

func (f fakeSource) GlobalProgress(model.Mode) float64 { return 0.25 }

func (f fakeSource) GlobalCompletionCount(model.Mode) int { return 3 }

func (f fakeSource) EnsureProfile(model.Mode) model.ReadingProfile {
	p := model.NewReadingProfile()
	p.Global = model.GlobalProgressSummary{CompletedVerseCount: 10, TotalVerseCount: 40}
	return p
}

func testSource() fakeSource {
	return fakeSource{books: map[string]model.BookProgressSummary{
		"GEN": {BookCode: "GEN", CompletedVerseCount: 50, TotalVerseCount: 50, CompletionCount: 1},
	}}
}

func TestRenderOverview(t *testing.T) {
	out := renderOverview(testSource(), model.Personal{}, 60)
	for _, want := range []string{"10/40", "25.0%", "Rounds", "1/66"} {
		if !strings.Contains(out, want) {
			t.Fatalf("overview missing %q: %s", want, out)
		}
	}
}

func TestTabsAndModes(t *testing.T) {
	m := NewModel(testSource(), []model.Mode{model.Personal{}, model.Team{ID: 4, Name: "새벽반"}})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	if m.activeTab != 1 {
		t.Fatalf("expected first category tab, got %d", m.activeTab)
	}
	if got := len(m.books.Rows()); got != 66 {
		t.Fatalf("expected 66 rows for whole category, got %d", got)
	}
	if row := m.books.Rows()[0]; row[0] != "GEN" || row[3] != "100.0%" {
		t.Fatalf("unexpected first row %v", row)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	if m.activeTab != len(m.tabs)-1 {
		t.Fatalf("expected wrap to last tab, got %d", m.activeTab)
	}
	if got := len(m.books.Rows()); got != 2 {
		t.Fatalf("expected psalms and proverbs, got %d rows", got)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	if !strings.Contains(m.View(), "새벽반") {
		t.Fatalf("expected team mode in header")
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateLine("abc", 6); got != "abc" {
		t.Fatalf("unexpected truncation %q", got)
	}
}
