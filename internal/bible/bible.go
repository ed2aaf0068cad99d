package bible

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/bible365/bible365/internal/model"
)

// Entry is one verse record of the bundled dataset.
type Entry struct {
	Version string `json:"version"`
	BookID  string `json:"bookId"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	Text    string `json:"text"`
}

type chapterKey struct {
	book    string
	chapter int
}

// Bible indexes the bundled verses for lookup and navigation.
type Bible struct {
	verses        map[string]model.Verse
	chapterCounts map[string]int
	verseCounts   map[chapterKey]int
	meta          *Metadata
}

// Load reads a JSON array of entries from path.
func Load(path string) (*Bible, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only dataset.
			_ = cerr
		}
	}()
	return Decode(file)
}

// Decode reads a JSON array of entries.
func Decode(r io.Reader) (*Bible, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode bible data: %w", err)
	}
	return New(entries), nil
}

// New indexes entries. Entries with an empty book or non-positive numbers are skipped.
func New(entries []Entry) *Bible {
	b := &Bible{
		verses:        make(map[string]model.Verse, len(entries)),
		chapterCounts: map[string]int{},
		verseCounts:   map[chapterKey]int{},
	}
	bookTotals := map[string]int{}
	for _, e := range entries {
		if e.BookID == "" || e.Chapter <= 0 || e.Verse <= 0 {
			continue
		}
		id := model.VerseID(e.BookID, e.Chapter, e.Verse)
		if _, dup := b.verses[id]; dup {
			continue
		}
		b.verses[id] = model.Verse{
			ID:       id,
			BookCode: e.BookID,
			Chapter:  e.Chapter,
			Number:   e.Verse,
			Text:     e.Text,
		}
		bookTotals[e.BookID]++
		if e.Chapter > b.chapterCounts[e.BookID] {
			b.chapterCounts[e.BookID] = e.Chapter
		}
		key := chapterKey{e.BookID, e.Chapter}
		if e.Verse > b.verseCounts[key] {
			b.verseCounts[key] = e.Verse
		}
	}
	b.meta = NewMetadata(bookTotals)
	return b
}

// Metadata returns the verse-count metadata derived from the dataset.
func (b *Bible) Metadata() *Metadata {
	return b.meta
}

// Verse looks up one verse.
func (b *Bible) Verse(book string, chapter, verse int) (model.Verse, bool) {
	v, ok := b.verses[model.VerseID(book, chapter, verse)]
	return v, ok
}

// VerseByID looks up one verse by its composite id.
func (b *Bible) VerseByID(id string) (model.Verse, bool) {
	v, ok := b.verses[id]
	return v, ok
}

// ChapterCount returns the number of chapters in book, 0 when unknown.
func (b *Bible) ChapterCount(book string) int {
	return b.chapterCounts[book]
}

// VerseCount returns the last verse number of a chapter, 0 when unknown.
func (b *Bible) VerseCount(book string, chapter int) int {
	return b.verseCounts[chapterKey{book, chapter}]
}

// First returns the first verse of book.
func (b *Bible) First(book string) (model.Verse, bool) {
	return b.Verse(book, 1, 1)
}

// Next returns the verse after v within its book, crossing chapters.
func (b *Bible) Next(v model.Verse) (model.Verse, bool) {
	if v.Number < b.VerseCount(v.BookCode, v.Chapter) {
		return b.Verse(v.BookCode, v.Chapter, v.Number+1)
	}
	if v.Chapter < b.ChapterCount(v.BookCode) {
		return b.Verse(v.BookCode, v.Chapter+1, 1)
	}
	return model.Verse{}, false
}

// Previous returns the verse before v within its book. From verse 1 it moves
// to the last verse of the previous chapter.
func (b *Bible) Previous(v model.Verse) (model.Verse, bool) {
	if v.Number > 1 {
		return b.Verse(v.BookCode, v.Chapter, v.Number-1)
	}
	if v.Chapter > 1 {
		prev := v.Chapter - 1
		return b.Verse(v.BookCode, prev, b.VerseCount(v.BookCode, prev))
	}
	return model.Verse{}, false
}

// BookCodes returns the books present in the dataset in canonical order.
// Codes outside the catalog sort last, alphabetically.
func (b *Bible) BookCodes() []string {
	codes := make([]string, 0, len(b.chapterCounts))
	for code := range b.chapterCounts {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		bi, iok := BookByCode(codes[i])
		bj, jok := BookByCode(codes[j])
		switch {
		case iok && jok:
			return bi.Index < bj.Index
		case iok != jok:
			return iok
		default:
			return codes[i] < codes[j]
		}
	})
	return codes
}
