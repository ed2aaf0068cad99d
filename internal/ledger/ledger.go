// Package ledger keeps per-mode reading progress: verse records, book and
// global summaries, completion counts. It is the only writer of that state.
//
// All mutations are serialized by one mutex and persisted as a single blob
// before the lock is released. Readers receive copies.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/bible365/bible365/internal/model"
)

const storageKeyBase = "reading_profiles_v4_"

// ErrInvalidVerse is returned for updates without a verse id.
var ErrInvalidVerse = errors.New("invalid verse")

// Storage persists the encoded profile map.
type Storage interface {
	// LoadBlob returns nil, nil when nothing is stored under key.
	LoadBlob(ctx context.Context, key string) ([]byte, error)
	SaveBlob(ctx context.Context, key string, data []byte) error
}

// VerseCounter supplies verse totals. Unknown totals leave ratios at zero.
type VerseCounter interface {
	TotalVerses(bookCode string) (int, bool)
	GlobalTotalVerses() int
}

// Options configures a Ledger.
type Options struct {
	// UserID scopes the storage key. Empty means a local, anonymous user.
	UserID string
	Logger *slog.Logger
}

// VerseUpdate is the new state of one verse.
type VerseUpdate struct {
	VerseID     string
	BookCode    string
	Highlighted model.IndexSet
	// WordCount, when positive, bounds valid highlight indexes.
	WordCount int
	Completed bool
}

// UpdateResult reports what an update changed in the aggregates.
type UpdateResult struct {
	Delta                 int
	BookCompleted         bool
	GlobalCompleted       bool
	BookCompletionCount   int
	GlobalCompletionCount int
}

// Ledger owns every ReadingProfile.
type Ledger struct {
	mu       sync.Mutex
	storage  Storage
	meta     VerseCounter
	key      string
	log      *slog.Logger
	profiles map[string]model.ReadingProfile
}

type noMeta struct{}

func (noMeta) TotalVerses(string) (int, bool) { return 0, false }
func (noMeta) GlobalTotalVerses() int         { return 0 }

// StorageKey returns the blob key used for a user.
func StorageKey(userID string) string {
	if userID == "" {
		userID = "local"
	}
	return storageKeyBase + userID
}

// New loads persisted profiles and returns a ready Ledger. Undecodable data
// is discarded; only storage read errors are returned.
func New(ctx context.Context, storage Storage, meta VerseCounter, opts Options) (*Ledger, error) {
	if meta == nil {
		meta = noMeta{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{
		storage:  storage,
		meta:     meta,
		key:      StorageKey(opts.UserID),
		log:      logger,
		profiles: map[string]model.ReadingProfile{},
	}
	if err := l.load(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) load(ctx context.Context) error {
	if l.storage == nil {
		return nil
	}
	data, err := l.storage.LoadBlob(ctx, l.key)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	profiles, migrated, err := decodeProfiles(data)
	if err != nil {
		l.log.Warn("discarding unreadable progress", "key", l.key, "err", err)
		return nil
	}
	for key, p := range profiles {
		l.applyGlobalTotal(&p)
		l.profiles[key] = p
	}
	if migrated {
		l.log.Info("migrated legacy progress to personal profile", "key", l.key)
		if err := l.persistLocked(ctx); err != nil {
			l.log.Warn("failed to save migrated progress", "err", err)
		}
	}
	return nil
}

func (l *Ledger) applyGlobalTotal(p *model.ReadingProfile) {
	if total := l.meta.GlobalTotalVerses(); total > 0 {
		p.Global.TotalVerseCount = total
	}
}

func (l *Ledger) ensureLocked(key string) model.ReadingProfile {
	p, ok := l.profiles[key]
	if !ok {
		p = model.NewReadingProfile()
		l.applyGlobalTotal(&p)
		l.profiles[key] = p
	}
	return p
}

func (l *Ledger) persistLocked(ctx context.Context) error {
	if l.storage == nil {
		return nil
	}
	data, err := encodeProfiles(l.profiles)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	if err := l.storage.SaveBlob(ctx, l.key, data); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// EnsureProfile returns the profile for mode, creating an empty one seeded
// with the current global verse total on first access.
func (l *Ledger) EnsureProfile(mode model.Mode) model.ReadingProfile {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureLocked(model.ModeKey(mode)).Clone()
}

// Profile is an alias of EnsureProfile kept for readers that only display.
func (l *Ledger) Profile(mode model.Mode) model.ReadingProfile {
	return l.EnsureProfile(mode)
}

// Modes returns the keys of every known profile, sorted.
func (l *Ledger) Modes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.profiles))
	for k := range l.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UpdateVerseProgress stores the new state of a verse and applies the change
// in completion (+1, 0 or -1) to the book and global summaries. A summary's
// completion count grows by one when a positive change makes its completed
// count equal its known total. Repeating an identical update changes nothing.
func (l *Ledger) UpdateVerseProgress(ctx context.Context, mode model.Mode, u VerseUpdate) (UpdateResult, error) {
	if u.VerseID == "" {
		return UpdateResult{}, ErrInvalidVerse
	}
	if u.BookCode == "" {
		u.BookCode = model.BookCodeFromID(u.VerseID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := model.ModeKey(mode)
	p := l.ensureLocked(key)
	res := applyVerseUpdate(&p, u, l.meta)
	l.profiles[key] = p

	if err := l.persistLocked(ctx); err != nil {
		return res, err
	}
	return res, nil
}

func applyVerseUpdate(p *model.ReadingProfile, u VerseUpdate, meta VerseCounter) UpdateResult {
	wasCompleted := p.VerseProgressByID[u.VerseID].IsCompleted
	delta := boolToInt(u.Completed) - boolToInt(wasCompleted)

	p.VerseProgressByID[u.VerseID] = model.VerseProgress{
		VerseID:                u.VerseID,
		BookCode:               u.BookCode,
		HighlightedWordIndexes: validIndexes(u.Highlighted, u.WordCount),
		IsCompleted:            u.Completed,
	}

	book, ok := p.BookProgressByCode[u.BookCode]
	if !ok {
		book = model.BookProgressSummary{BookCode: u.BookCode}
	}
	if total, known := meta.TotalVerses(u.BookCode); known {
		book.TotalVerseCount = total
	}
	var res UpdateResult
	res.Delta = delta
	book.CompletedVerseCount, book.CompletionCount, res.BookCompleted =
		applyDelta(book.CompletedVerseCount, book.TotalVerseCount, book.CompletionCount, delta)
	p.BookProgressByCode[u.BookCode] = book
	res.BookCompletionCount = book.CompletionCount

	g := p.Global
	if total := meta.GlobalTotalVerses(); total > 0 {
		g.TotalVerseCount = total
	}
	g.CompletedVerseCount, g.CompletionCount, res.GlobalCompleted =
		applyDelta(g.CompletedVerseCount, g.TotalVerseCount, g.CompletionCount, delta)
	p.Global = g
	res.GlobalCompletionCount = g.CompletionCount
	return res
}

func applyDelta(completed, total, completions, delta int) (int, int, bool) {
	completed += delta
	if completed < 0 {
		completed = 0
	}
	if total > 0 && delta > 0 && completed == total {
		return completed, completions + 1, true
	}
	return completed, completions, false
}

func validIndexes(s model.IndexSet, wordCount int) []int {
	out := make([]int, 0, len(s))
	for _, i := range s.Sorted() {
		if i < 0 || (wordCount > 0 && i >= wordCount) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// HighlightedIndexes returns the stored highlights of a verse, empty if none.
func (l *Ledger) HighlightedIndexes(verseID string, mode model.Mode) model.IndexSet {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.profiles[model.ModeKey(mode)]
	if !ok {
		return model.IndexSet{}
	}
	return model.IndexSetOf(p.VerseProgressByID[verseID].HighlightedWordIndexes...)
}

// ProgressForBook returns completed/total verses of a book in [0, 1].
func (l *Ledger) ProgressForBook(bookCode string, mode model.Mode) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	book := l.profiles[model.ModeKey(mode)].BookProgressByCode[bookCode]
	total := book.TotalVerseCount
	if n, ok := l.meta.TotalVerses(bookCode); ok {
		total = n
	}
	return ratio(book.CompletedVerseCount, total)
}

// GlobalProgress returns completed/total verses of the whole corpus in [0, 1].
func (l *Ledger) GlobalProgress(mode model.Mode) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	g := l.profiles[model.ModeKey(mode)].Global
	total := g.TotalVerseCount
	if n := l.meta.GlobalTotalVerses(); n > 0 {
		total = n
	}
	return ratio(g.CompletedVerseCount, total)
}

// BookSummary returns a book's summary with the best known total.
func (l *Ledger) BookSummary(bookCode string, mode model.Mode) model.BookProgressSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	book, ok := l.profiles[model.ModeKey(mode)].BookProgressByCode[bookCode]
	if !ok {
		book = model.BookProgressSummary{BookCode: bookCode}
	}
	if n, known := l.meta.TotalVerses(bookCode); known {
		book.TotalVerseCount = n
	}
	return book
}

// CompletionCountForBook returns how many times a book was completed.
func (l *Ledger) CompletionCountForBook(bookCode string, mode model.Mode) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.profiles[model.ModeKey(mode)].BookProgressByCode[bookCode].CompletionCount
}

// GlobalCompletionCount returns how many full read-throughs were completed.
func (l *Ledger) GlobalCompletionCount(mode model.Mode) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.profiles[model.ModeKey(mode)].Global.CompletionCount
}

// ResetAllProgress clears verse records and completed counts of a mode.
// Completion counts survive when keepCompletionCounts is set.
func (l *Ledger) ResetAllProgress(ctx context.Context, mode model.Mode, keepCompletionCounts bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := model.ModeKey(mode)
	p := l.ensureLocked(key)
	p.VerseProgressByID = map[string]model.VerseProgress{}
	books := make(map[string]model.BookProgressSummary, len(p.BookProgressByCode))
	for code, b := range p.BookProgressByCode {
		b.CompletedVerseCount = 0
		if !keepCompletionCounts {
			b.CompletionCount = 0
		}
		books[code] = b
	}
	p.BookProgressByCode = books
	p.Global.CompletedVerseCount = 0
	if !keepCompletionCounts {
		p.Global.CompletionCount = 0
	}
	l.profiles[key] = p
	return l.persistLocked(ctx)
}

// SeedNearlyComplete marks every listed book as read except one verse of
// holdoutBook, keeping completion counts. It exists to rehearse the
// round-completion flow without reading the whole corpus.
func (l *Ledger) SeedNearlyComplete(ctx context.Context, mode model.Mode, holdoutBook string, bookCodes []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := model.ModeKey(mode)
	old := l.ensureLocked(key)
	p := model.NewReadingProfile()

	var total, completed int
	for _, code := range bookCodes {
		n, known := l.meta.TotalVerses(code)
		if !known {
			l.log.Warn("no verse total for book, seeding with one verse", "book", code)
			n = 1
		}
		done := n
		if code == holdoutBook {
			done = n - 1
		}
		total += n
		completed += done
		p.BookProgressByCode[code] = model.BookProgressSummary{
			BookCode:            code,
			CompletedVerseCount: done,
			TotalVerseCount:     n,
			CompletionCount:     old.BookProgressByCode[code].CompletionCount,
		}
	}
	p.Global = model.GlobalProgressSummary{
		CompletedVerseCount: completed,
		TotalVerseCount:     total,
		CompletionCount:     old.Global.CompletionCount,
	}
	l.profiles[key] = p
	return l.persistLocked(ctx)
}

func ratio(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	r := float64(completed) / float64(total)
	if r > 1 {
		return 1
	}
	return r
}
