package bible

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleJSON = `[
  {"version":"KOR","bookId":"GEN","chapter":1,"verse":1,"text":"태초에 하나님이 천지를 창조하시니라"},
  {"version":"KOR","bookId":"GEN","chapter":1,"verse":2,"text":"땅이 혼돈하고 공허하며"},
  {"version":"KOR","bookId":"GEN","chapter":2,"verse":1,"text":"천지와 만물이 다 이루니라"},
  {"version":"KOR","bookId":"MRK","chapter":1,"verse":1,"text":"하나님의 아들 예수 그리스도 복음의 시작이라"},
  {"version":"KOR","bookId":"","chapter":1,"verse":1,"text":"skip"}
]`

func TestLoadAndNavigate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b.ChapterCount("GEN") != 2 || b.VerseCount("GEN", 1) != 2 {
		t.Fatalf("unexpected counts: %d %d", b.ChapterCount("GEN"), b.VerseCount("GEN", 1))
	}

	v, ok := b.First("GEN")
	if !ok || v.ID != "GEN-1-1" {
		t.Fatalf("unexpected first verse: %+v", v)
	}
	v, ok = b.Next(v)
	if !ok || v.ID != "GEN-1-2" {
		t.Fatalf("unexpected next: %+v", v)
	}
	v, ok = b.Next(v)
	if !ok || v.ID != "GEN-2-1" {
		t.Fatalf("expected chapter crossing, got %+v", v)
	}
	if _, ok := b.Next(v); ok {
		t.Fatalf("expected end of book")
	}
	v, ok = b.Previous(v)
	if !ok || v.ID != "GEN-1-2" {
		t.Fatalf("expected last verse of previous chapter, got %+v", v)
	}

	codes := b.BookCodes()
	if strings.Join(codes, ",") != "GEN,MRK" {
		t.Fatalf("unexpected book order: %v", codes)
	}
}

func TestMetadataFromDataset(t *testing.T) {
	b, err := Decode(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	meta := b.Metadata()
	if n, ok := meta.TotalVerses("GEN"); !ok || n != 3 {
		t.Fatalf("unexpected GEN total %d %v", n, ok)
	}
	if _, ok := meta.TotalVerses("REV"); ok {
		t.Fatalf("expected REV unknown")
	}
	if meta.GlobalTotalVerses() != 4 {
		t.Fatalf("unexpected global total %d", meta.GlobalTotalVerses())
	}

	var empty *Metadata
	if _, ok := empty.TotalVerses("GEN"); ok || empty.GlobalTotalVerses() != 0 {
		t.Fatalf("nil metadata should know nothing")
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	if _, err := Decode(strings.NewReader("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestCatalogAndCategories(t *testing.T) {
	if len(Books) != 66 {
		t.Fatalf("expected 66 books, got %d", len(Books))
	}
	for i, b := range Books {
		if b.Index != i {
			t.Fatalf("book %s has index %d at position %d", b.Code, b.Index, i)
		}
	}
	if LocalizedName("mrk", "x") != "마가복음" || LocalizedName("XXX", "fallback") != "fallback" {
		t.Fatalf("unexpected localized names")
	}
	if n := len(FilterBooks(CategoryNewTestament)); n != 27 {
		t.Fatalf("expected 27 NT books, got %d", n)
	}
	if n := len(FilterBooks(CategoryOldTestament)); n != 39 {
		t.Fatalf("expected 39 OT books, got %d", n)
	}
	gospels := FilterBooks(CategoryGospels)
	if len(gospels) != 4 || gospels[0].Code != "MAT" || gospels[3].Code != "JHN" {
		t.Fatalf("unexpected gospels: %+v", gospels)
	}
	if c, ok := ParseCategory("Gospels"); !ok || c != CategoryGospels {
		t.Fatalf("unexpected category parse")
	}
	if _, ok := ParseCategory("apocrypha"); ok {
		t.Fatalf("expected unknown category")
	}
	if !IsNewTestament("REV") || IsNewTestament("GEN") {
		t.Fatalf("unexpected testament split")
	}
}
