package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/bible365/bible365/internal/bible"
	"github.com/bible365/bible365/internal/logging"
	"github.com/bible365/bible365/internal/model"
)

type memStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
	saves int
	fail  error
}

func newMemStorage() *memStorage {
	return &memStorage{blobs: map[string][]byte{}}
}

func (m *memStorage) LoadBlob(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blobs[key], nil
}

func (m *memStorage) SaveBlob(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.blobs[key] = append([]byte(nil), data...)
	m.saves++
	return nil
}

func testMeta() *bible.Metadata {
	return bible.NewMetadata(map[string]int{"GEN": 3, "MRK": 2})
}

func newTestLedger(t *testing.T, st Storage) *Ledger {
	t.Helper()
	l, err := New(context.Background(), st, testMeta(), Options{UserID: "u1", Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return l
}

func complete(t *testing.T, l *Ledger, mode model.Mode, id string) UpdateResult {
	t.Helper()
	res, err := l.UpdateVerseProgress(context.Background(), mode, VerseUpdate{
		VerseID:     id,
		Highlighted: model.IndexSetOf(0, 1),
		WordCount:   2,
		Completed:   true,
	})
	if err != nil {
		t.Fatalf("update %s: %v", id, err)
	}
	return res
}

func TestUpdateIsIdempotent(t *testing.T) {
	l := newTestLedger(t, newMemStorage())
	mode := model.Personal{}

	first := complete(t, l, mode, "GEN-1-1")
	if first.Delta != 1 {
		t.Fatalf("expected delta 1, got %d", first.Delta)
	}
	second := complete(t, l, mode, "GEN-1-1")
	if second.Delta != 0 {
		t.Fatalf("expected delta 0 on repeat, got %d", second.Delta)
	}
	sum := l.BookSummary("GEN", mode)
	if sum.CompletedVerseCount != 1 || sum.TotalVerseCount != 3 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if got := l.ProgressForBook("GEN", mode); got < 0.33 || got > 0.34 {
		t.Fatalf("unexpected ratio %f", got)
	}
}

func TestUncompleteNeverGoesNegative(t *testing.T) {
	l := newTestLedger(t, newMemStorage())
	mode := model.Personal{}
	ctx := context.Background()

	complete(t, l, mode, "GEN-1-1")
	res, err := l.UpdateVerseProgress(ctx, mode, VerseUpdate{VerseID: "GEN-1-1", Completed: false})
	if err != nil || res.Delta != -1 {
		t.Fatalf("expected delta -1, got %+v err=%v", res, err)
	}
	if _, err := l.UpdateVerseProgress(ctx, mode, VerseUpdate{VerseID: "GEN-1-1", Completed: false}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := l.BookSummary("GEN", mode).CompletedVerseCount; got != 0 {
		t.Fatalf("expected 0 completed, got %d", got)
	}
	if got := l.EnsureProfile(mode).Global.CompletedVerseCount; got != 0 {
		t.Fatalf("expected 0 global completed, got %d", got)
	}
}

func TestCompletionCountIncrementsOncePerCrossing(t *testing.T) {
	l := newTestLedger(t, newMemStorage())
	mode := model.Personal{}

	complete(t, l, mode, "GEN-1-1")
	complete(t, l, mode, "GEN-1-2")
	res := complete(t, l, mode, "GEN-1-3")
	if !res.BookCompleted || res.BookCompletionCount != 1 {
		t.Fatalf("expected book completion, got %+v", res)
	}
	complete(t, l, mode, "GEN-1-3")
	if got := l.CompletionCountForBook("GEN", mode); got != 1 {
		t.Fatalf("expected 1 completion, got %d", got)
	}
	if got := l.ProgressForBook("GEN", mode); got != 1 {
		t.Fatalf("expected full ratio, got %f", got)
	}

	complete(t, l, mode, "MRK-1-1")
	res = complete(t, l, mode, "MRK-1-2")
	if !res.GlobalCompleted || l.GlobalCompletionCount(mode) != 1 {
		t.Fatalf("expected global completion, got %+v", res)
	}
}

func TestResetKeepsOrClearsCounts(t *testing.T) {
	ctx := context.Background()
	for _, keep := range []bool{true, false} {
		l := newTestLedger(t, newMemStorage())
		mode := model.Personal{}
		for round := 0; round < 2; round++ {
			for _, id := range []string{"GEN-1-1", "GEN-1-2", "GEN-1-3", "MRK-1-1", "MRK-1-2"} {
				complete(t, l, mode, id)
			}
			if err := l.ResetAllProgress(ctx, mode, true); err != nil {
				t.Fatalf("reset: %v", err)
			}
		}
		if got := l.GlobalCompletionCount(mode); got != 2 {
			t.Fatalf("expected 2 global completions, got %d", got)
		}
		if err := l.ResetAllProgress(ctx, mode, keep); err != nil {
			t.Fatalf("reset: %v", err)
		}
		p := l.EnsureProfile(mode)
		if len(p.VerseProgressByID) != 0 || p.Global.CompletedVerseCount != 0 {
			t.Fatalf("expected cleared verses, got %+v", p)
		}
		want := 0
		if keep {
			want = 2
		}
		if p.Global.CompletionCount != want || p.BookProgressByCode["GEN"].CompletionCount != want {
			t.Fatalf("keep=%v: expected counts %d, got %+v", keep, want, p)
		}
		if p.BookProgressByCode["GEN"].CompletedVerseCount != 0 {
			t.Fatalf("expected book completed reset")
		}
	}
}

func TestModesAreIndependent(t *testing.T) {
	l := newTestLedger(t, newMemStorage())
	team := model.Team{ID: 7, Name: "새벽반"}

	complete(t, l, team, "GEN-1-1")
	if got := l.ProgressForBook("GEN", model.Personal{}); got != 0 {
		t.Fatalf("personal should be untouched, got %f", got)
	}
	if l.HighlightedIndexes("GEN-1-1", model.Personal{}).Len() != 0 {
		t.Fatalf("personal highlights should be empty")
	}
	if got := l.HighlightedIndexes("GEN-1-1", team); got.Len() != 2 {
		t.Fatalf("expected team highlights, got %v", got.Sorted())
	}
	if err := l.ResetAllProgress(context.Background(), model.Personal{}, false); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := l.BookSummary("GEN", team).CompletedVerseCount; got != 1 {
		t.Fatalf("team progress lost on personal reset")
	}
	modes := l.Modes()
	if len(modes) != 2 || modes[0] != "individual" || modes[1] != "team:7" {
		t.Fatalf("unexpected modes %v", modes)
	}
}

func TestOutOfRangeIndexesDropped(t *testing.T) {
	l := newTestLedger(t, newMemStorage())
	mode := model.Personal{}
	_, err := l.UpdateVerseProgress(context.Background(), mode, VerseUpdate{
		VerseID:     "GEN-1-1",
		Highlighted: model.IndexSetOf(-1, 0, 2, 5),
		WordCount:   3,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got := l.HighlightedIndexes("GEN-1-1", mode).Sorted()
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Fatalf("unexpected indexes %v", got)
	}
}

func TestUnknownBookHasZeroRatio(t *testing.T) {
	l := newTestLedger(t, newMemStorage())
	mode := model.Personal{}
	complete(t, l, mode, "XYZ-1-1")
	if got := l.ProgressForBook("XYZ", mode); got != 0 {
		t.Fatalf("expected 0 ratio without total, got %f", got)
	}
	if got := l.CompletionCountForBook("XYZ", mode); got != 0 {
		t.Fatalf("expected no completion without total, got %d", got)
	}
}

func TestInvalidVerseRejected(t *testing.T) {
	l := newTestLedger(t, newMemStorage())
	_, err := l.UpdateVerseProgress(context.Background(), model.Personal{}, VerseUpdate{})
	if !errors.Is(err, ErrInvalidVerse) {
		t.Fatalf("expected ErrInvalidVerse, got %v", err)
	}
}

func TestPersistAndReload(t *testing.T) {
	st := newMemStorage()
	l := newTestLedger(t, st)
	complete(t, l, model.Team{ID: 3}, "MRK-1-1")

	if _, ok := st.blobs[StorageKey("u1")]; !ok {
		t.Fatalf("expected blob under user key")
	}
	reloaded := newTestLedger(t, st)
	if got := reloaded.BookSummary("MRK", model.Team{ID: 3}).CompletedVerseCount; got != 1 {
		t.Fatalf("expected reloaded progress, got %d", got)
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	st := newMemStorage()
	l := newTestLedger(t, st)
	st.fail = errors.New("disk full")
	if _, err := l.UpdateVerseProgress(context.Background(), model.Personal{}, VerseUpdate{VerseID: "GEN-1-1", Completed: true}); err == nil {
		t.Fatalf("expected save error")
	}
	if got := l.BookSummary("GEN", model.Personal{}).CompletedVerseCount; got != 1 {
		t.Fatalf("expected in-memory update, got %d", got)
	}
}

func TestLegacyBlobMigratesToPersonal(t *testing.T) {
	legacy := model.NewReadingProfile()
	legacy.VerseProgressByID["GEN-1-1"] = model.VerseProgress{VerseID: "GEN-1-1", BookCode: "GEN", IsCompleted: true}
	legacy.BookProgressByCode["GEN"] = model.BookProgressSummary{BookCode: "GEN", CompletedVerseCount: 1, TotalVerseCount: 3}
	legacy.Global = model.GlobalProgressSummary{CompletedVerseCount: 1, CompletionCount: 4}
	data, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	st := newMemStorage()
	st.blobs[StorageKey("u1")] = data

	l := newTestLedger(t, st)
	if got := l.GlobalCompletionCount(model.Personal{}); got != 4 {
		t.Fatalf("expected migrated completion count, got %d", got)
	}
	if st.saves != 1 {
		t.Fatalf("expected migrated blob to be saved, saves=%d", st.saves)
	}
	var env envelope
	if err := json.Unmarshal(st.blobs[StorageKey("u1")], &env); err != nil || env.Version != formatVersion {
		t.Fatalf("expected envelope, got %v %+v", err, env)
	}
	if _, ok := env.Profiles["individual"]; !ok {
		t.Fatalf("expected individual profile in envelope")
	}
}

func TestCorruptBlobStartsEmpty(t *testing.T) {
	for _, raw := range []string{"not json", `["list"]`, `{"something":"else"}`} {
		st := newMemStorage()
		st.blobs[StorageKey("u1")] = []byte(raw)
		l := newTestLedger(t, st)
		p := l.EnsureProfile(model.Personal{})
		if len(p.VerseProgressByID) != 0 || p.Global.TotalVerseCount != 5 {
			t.Fatalf("%q: expected fresh profile, got %+v", raw, p)
		}
	}
}

func TestSeedNearlyCompleteThenFinish(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, newMemStorage())
	mode := model.Personal{}

	if err := l.SeedNearlyComplete(ctx, mode, "MRK", []string{"GEN", "MRK"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := l.ProgressForBook("GEN", mode); got != 1 {
		t.Fatalf("expected GEN complete, got %f", got)
	}
	if got := l.BookSummary("MRK", mode).CompletedVerseCount; got != 1 {
		t.Fatalf("expected MRK one short, got %d", got)
	}
	res := complete(t, l, mode, "MRK-1-2")
	if !res.BookCompleted || !res.GlobalCompleted {
		t.Fatalf("expected book and global completion, got %+v", res)
	}
	if got := l.GlobalCompletionCount(mode); got != 1 {
		t.Fatalf("expected 1 global completion, got %d", got)
	}
}

func TestProfileIsACopy(t *testing.T) {
	l := newTestLedger(t, newMemStorage())
	complete(t, l, model.Personal{}, "GEN-1-1")
	p := l.Profile(model.Personal{})
	p.VerseProgressByID["GEN-1-1"] = model.VerseProgress{}
	if !l.Profile(model.Personal{}).VerseProgressByID["GEN-1-1"].IsCompleted {
		t.Fatalf("caller mutation leaked into ledger")
	}
}

func TestConcurrentUpdates(t *testing.T) {
	l := newTestLedger(t, newMemStorage())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.UpdateVerseProgress(context.Background(), model.Personal{}, VerseUpdate{VerseID: "GEN-1-1", Completed: true})
		}()
	}
	wg.Wait()
	if got := l.BookSummary("GEN", model.Personal{}).CompletedVerseCount; got != 1 {
		t.Fatalf("expected 1 completed after concurrent updates, got %d", got)
	}
}
