// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidVerseID is returned when a verse id is not "BOOK-CHAPTER-VERSE".
var ErrInvalidVerseID = errors.New("invalid verse id")

// Config defines reading settings.
type Config struct {
	User                string
	Threshold           float64
	BiblePath           string
	TeamID              int
	TeamName            string
	UploadEnabled       bool
	UploadBaseURL       string
	UploadToken         string
	ResumeFromLastRead  bool
	DefaultBookCategory string
}

// Verse is a single displayed verse.
type Verse struct {
	ID       string
	BookCode string
	Chapter  int
	Number   int
	Text     string
}

// Words splits the verse text on whitespace, keeping punctuation attached.
func (v Verse) Words() []string {
	return strings.Fields(v.Text)
}

// VerseID builds the composite "BOOK-CHAPTER-VERSE" key.
func VerseID(bookCode string, chapter, verse int) string {
	return fmt.Sprintf("%s-%d-%d", bookCode, chapter, verse)
}

// ParseVerseID splits a composite verse key.
func ParseVerseID(id string) (bookCode string, chapter, verse int, err error) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 || parts[0] == "" {
		return "", 0, 0, fmt.Errorf("%w: %q", ErrInvalidVerseID, id)
	}
	chapter, err = strconv.Atoi(parts[1])
	if err != nil || chapter <= 0 {
		return "", 0, 0, fmt.Errorf("%w: %q", ErrInvalidVerseID, id)
	}
	verse, err = strconv.Atoi(parts[2])
	if err != nil || verse <= 0 {
		return "", 0, 0, fmt.Errorf("%w: %q", ErrInvalidVerseID, id)
	}
	return parts[0], chapter, verse, nil
}

// BookCodeFromID returns the book prefix of a verse id ("PRO-1-1" -> "PRO").
func BookCodeFromID(id string) string {
	if i := strings.IndexByte(id, '-'); i >= 0 {
		return id[:i]
	}
	return id
}

// IndexSet is a set of word indexes within one verse.
type IndexSet map[int]struct{}

// IndexSetOf builds a set from the given indexes.
func IndexSetOf(indexes ...int) IndexSet {
	s := make(IndexSet, len(indexes))
	for _, i := range indexes {
		s[i] = struct{}{}
	}
	return s
}

// Add inserts i into the set.
func (s IndexSet) Add(i int) {
	s[i] = struct{}{}
}

// Has reports whether i is in the set.
func (s IndexSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Len returns the number of indexes.
func (s IndexSet) Len() int {
	return len(s)
}

// Union adds every index of other to s.
func (s IndexSet) Union(other IndexSet) {
	for i := range other {
		s[i] = struct{}{}
	}
}

// Clone returns a copy of the set. A nil set clones to an empty one.
func (s IndexSet) Clone() IndexSet {
	out := make(IndexSet, len(s))
	for i := range s {
		out[i] = struct{}{}
	}
	return out
}

// Sorted returns the indexes in ascending order.
func (s IndexSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// VerseProgress is the stored reading state of one verse.
type VerseProgress struct {
	VerseID                string `json:"verseId"`
	BookCode               string `json:"bookCode"`
	HighlightedWordIndexes []int  `json:"highlightedWordIndexes"`
	IsCompleted            bool   `json:"isCompleted"`
}

// BookProgressSummary aggregates verse completion for one book.
type BookProgressSummary struct {
	BookCode            string `json:"bookCode"`
	CompletedVerseCount int    `json:"completedVerseCount"`
	TotalVerseCount     int    `json:"totalVerseCount"`
	CompletionCount     int    `json:"completionCount"`
}

// GlobalProgressSummary aggregates verse completion over all 66 books.
type GlobalProgressSummary struct {
	CompletedVerseCount int `json:"completedVerseCount"`
	TotalVerseCount     int `json:"totalVerseCount"`
	CompletionCount     int `json:"completionCount"`
}

// ReadingProfile holds all progress for one mode.
type ReadingProfile struct {
	VerseProgressByID  map[string]VerseProgress       `json:"verseProgressById"`
	BookProgressByCode map[string]BookProgressSummary `json:"bookProgressByCode"`
	Global             GlobalProgressSummary          `json:"global"`
}

// NewReadingProfile returns an empty profile with initialized maps.
func NewReadingProfile() ReadingProfile {
	return ReadingProfile{
		VerseProgressByID:  map[string]VerseProgress{},
		BookProgressByCode: map[string]BookProgressSummary{},
	}
}

// Clone returns a deep copy so callers never share maps with the owner.
func (p ReadingProfile) Clone() ReadingProfile {
	out := ReadingProfile{
		VerseProgressByID:  make(map[string]VerseProgress, len(p.VerseProgressByID)),
		BookProgressByCode: make(map[string]BookProgressSummary, len(p.BookProgressByCode)),
		Global:             p.Global,
	}
	for id, vp := range p.VerseProgressByID {
		vp.HighlightedWordIndexes = append([]int(nil), vp.HighlightedWordIndexes...)
		out.VerseProgressByID[id] = vp
	}
	for code, b := range p.BookProgressByCode {
		out.BookProgressByCode[code] = b
	}
	return out
}

// ProgressReport summarizes a ledger update for remote sharing.
type ProgressReport struct {
	GlobalCompletionCount int
	GlobalRatio           float64
	// FinishedBook is set when the update completed a book.
	FinishedBook string
}
