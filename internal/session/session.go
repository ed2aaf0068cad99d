// Package session drives reading of one verse at a time: it feeds speech
// events through the matcher, records progress in the ledger and detects the
// end of a full read-through.
//
// A Session is owned by a single goroutine (the TUI loop or the listen
// command); it is not safe for concurrent use.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bible365/bible365/internal/ledger"
	"github.com/bible365/bible365/internal/match"
	"github.com/bible365/bible365/internal/model"
	"github.com/bible365/bible365/internal/speech"
)

// DefaultThreshold is the share of highlighted words that completes a verse.
const DefaultThreshold = 0.9

// ErrNoVerse is returned when an event arrives before a verse is open.
var ErrNoVerse = errors.New("no verse open")

// Progress is the part of the ledger a session needs.
type Progress interface {
	HighlightedIndexes(verseID string, mode model.Mode) model.IndexSet
	UpdateVerseProgress(ctx context.Context, mode model.Mode, u ledger.VerseUpdate) (ledger.UpdateResult, error)
	ProgressForBook(bookCode string, mode model.Mode) float64
	GlobalProgress(mode model.Mode) float64
	GlobalCompletionCount(mode model.Mode) int
	ResetAllProgress(ctx context.Context, mode model.Mode, keepCompletionCounts bool) error
}

// Navigator moves between verses.
type Navigator interface {
	Next(v model.Verse) (model.Verse, bool)
	Previous(v model.Verse) (model.Verse, bool)
}

// Notifier receives reading events for remote sharing. Calls must not block.
type Notifier interface {
	NotifyLastRead(mode model.Mode, verseID string)
	NotifyProgress(mode model.Mode, report model.ProgressReport)
}

// LastReadStore remembers the last opened verse per mode.
type LastReadStore interface {
	SaveLastRead(ctx context.Context, modeKey, verseID string) error
}

// Options configures a Session.
type Options struct {
	Mode      model.Mode
	Threshold float64
	Notifier  Notifier
	LastRead  LastReadStore
	Logger    *slog.Logger
}

// Outcome describes the effect of one event.
type Outcome struct {
	Added     int
	Completed bool
	Update    ledger.UpdateResult
}

// Session is the reading state of the verse on screen.
type Session struct {
	progress  Progress
	nav       Navigator
	mode      model.Mode
	threshold float64
	notifier  Notifier
	lastRead  LastReadStore
	log       *slog.Logger

	verse       model.Verse
	matcher     *match.Matcher
	highlighted model.IndexSet

	lastGlobalCount int
	roundCompleted  bool
}

// New returns a Session with no verse open.
func New(progress Progress, nav Navigator, opts Options) *Session {
	mode := opts.Mode
	if mode == nil {
		mode = model.Personal{}
	}
	threshold := opts.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		progress:        progress,
		nav:             nav,
		mode:            mode,
		threshold:       threshold,
		notifier:        opts.Notifier,
		lastRead:        opts.LastRead,
		log:             logger,
		highlighted:     model.IndexSet{},
		lastGlobalCount: progress.GlobalCompletionCount(mode),
	}
}

// Open shows v, restoring its stored highlights.
func (s *Session) Open(ctx context.Context, v model.Verse) error {
	s.verse = v
	s.matcher = match.NewMatcher(v.Text)
	s.highlighted = model.IndexSet{}
	for i := range s.progress.HighlightedIndexes(v.ID, s.mode) {
		if i >= 0 && i < s.matcher.WordCount() {
			s.highlighted.Add(i)
		}
	}
	s.lastGlobalCount = s.progress.GlobalCompletionCount(s.mode)

	if s.lastRead != nil {
		if err := s.lastRead.SaveLastRead(ctx, model.ModeKey(s.mode), v.ID); err != nil {
			s.log.Warn("failed to save last read position", "verse", v.ID, "err", err)
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyLastRead(s.mode, v.ID)
	}
	s.log.Debug("verse opened", "verse", v.ID, "highlighted", s.highlighted.Len())
	return nil
}

// HandleEvent applies a recognition event. Final events are aligned against
// the verse in lockstep; partial events highlight one new word per token.
func (s *Session) HandleEvent(ctx context.Context, ev speech.Event) (Outcome, error) {
	if s.matcher == nil {
		return Outcome{}, ErrNoVerse
	}
	before := s.highlighted.Len()
	if ev.IsFinal {
		s.highlighted.Union(s.matcher.MatchUtterance(ev.Text))
	} else {
		s.matcher.ApplyPartial(ev.Text, s.highlighted)
	}
	out := Outcome{Added: s.highlighted.Len() - before, Completed: s.VerseCompleted()}
	if out.Added == 0 {
		return out, nil
	}

	res, err := s.progress.UpdateVerseProgress(ctx, s.mode, ledger.VerseUpdate{
		VerseID:     s.verse.ID,
		BookCode:    s.verse.BookCode,
		Highlighted: s.highlighted,
		WordCount:   s.matcher.WordCount(),
		Completed:   out.Completed,
	})
	out.Update = res
	if res.GlobalCompletionCount > s.lastGlobalCount {
		s.roundCompleted = true
		s.log.Info("full read-through completed", "mode", model.ModeKey(s.mode), "count", res.GlobalCompletionCount)
	}
	s.lastGlobalCount = res.GlobalCompletionCount

	if s.notifier != nil && res.Delta != 0 {
		report := model.ProgressReport{
			GlobalCompletionCount: res.GlobalCompletionCount,
			GlobalRatio:           s.progress.GlobalProgress(s.mode),
		}
		if res.BookCompleted {
			report.FinishedBook = s.verse.BookCode
		}
		s.notifier.NotifyProgress(s.mode, report)
	}
	if err != nil {
		return out, fmt.Errorf("failed to record progress for %s: %w", s.verse.ID, err)
	}
	return out, nil
}

// AcknowledgeRound starts a new read-through, keeping completion counts.
func (s *Session) AcknowledgeRound(ctx context.Context) error {
	if err := s.progress.ResetAllProgress(ctx, s.mode, true); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	s.highlighted = model.IndexSet{}
	s.roundCompleted = false
	s.lastGlobalCount = s.progress.GlobalCompletionCount(s.mode)
	return nil
}

// Next opens the following verse. It reports false at the end of a book.
func (s *Session) Next(ctx context.Context) (bool, error) {
	v, ok := s.nav.Next(s.verse)
	if !ok {
		return false, nil
	}
	return true, s.Open(ctx, v)
}

// Previous opens the preceding verse. It reports false at the start of a book.
func (s *Session) Previous(ctx context.Context) (bool, error) {
	v, ok := s.nav.Previous(s.verse)
	if !ok {
		return false, nil
	}
	return true, s.Open(ctx, v)
}

// VerseProgress returns the highlighted share of the open verse.
func (s *Session) VerseProgress() float64 {
	if s.matcher == nil || s.matcher.WordCount() == 0 {
		return 0
	}
	return float64(s.highlighted.Len()) / float64(s.matcher.WordCount())
}

// VerseCompleted reports whether the open verse reached the threshold.
func (s *Session) VerseCompleted() bool {
	if s.matcher == nil || s.matcher.WordCount() == 0 {
		return false
	}
	return s.VerseProgress() >= s.threshold
}

func (s *Session) Verse() model.Verse { return s.verse }
func (s *Session) Mode() model.Mode   { return s.mode }

// Words returns the displayed words of the open verse.
func (s *Session) Words() []string {
	if s.matcher == nil {
		return nil
	}
	return s.matcher.Words()
}

// Highlighted returns a copy of the highlighted word indexes.
func (s *Session) Highlighted() model.IndexSet {
	return s.highlighted.Clone()
}

// RoundCompleted reports whether a read-through finished and awaits
// acknowledgement.
func (s *Session) RoundCompleted() bool {
	return s.roundCompleted
}

func (s *Session) BookProgress() float64 {
	return s.progress.ProgressForBook(s.verse.BookCode, s.mode)
}

func (s *Session) GlobalProgress() float64 {
	return s.progress.GlobalProgress(s.mode)
}

func (s *Session) GlobalCompletionCount() int {
	return s.progress.GlobalCompletionCount(s.mode)
}
