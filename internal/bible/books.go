// Package bible provides the book catalog and the bundled verse dataset.
package bible

import "strings"

// Book is one of the 66 canonical books.
type Book struct {
	Index  int
	Code   string
	NameKo string
}

// Category groups books for selection screens.
type Category string

// Categories offered when choosing what to read.
const (
	CategoryWhole          Category = "whole"
	CategoryOldTestament   Category = "old"
	CategoryNewTestament   Category = "new"
	CategoryGospels        Category = "gospels"
	CategoryPsalmsProverbs Category = "psalms-proverbs"
)

// Books lists the canon in order.
var Books = []Book{
	{0, "GEN", "창세기"}, {1, "EXO", "출애굽기"}, {2, "LEV", "레위기"},
	{3, "NUM", "민수기"}, {4, "DEU", "신명기"}, {5, "JOS", "여호수아"},
	{6, "JDG", "사사기"}, {7, "RUT", "룻기"}, {8, "1SA", "사무엘상"},
	{9, "2SA", "사무엘하"}, {10, "1KI", "열왕기상"}, {11, "2KI", "열왕기하"},
	{12, "1CH", "역대상"}, {13, "2CH", "역대하"}, {14, "EZR", "에스라"},
	{15, "NEH", "느헤미야"}, {16, "EST", "에스더"}, {17, "JOB", "욥기"},
	{18, "PSA", "시편"}, {19, "PRO", "잠언"}, {20, "ECC", "전도서"},
	{21, "SNG", "아가"}, {22, "ISA", "이사야"}, {23, "JER", "예레미야"},
	{24, "LAM", "예레미야애가"}, {25, "EZK", "에스겔"}, {26, "DAN", "다니엘"},
	{27, "HOS", "호세아"}, {28, "JOL", "요엘"}, {29, "AMO", "아모스"},
	{30, "OBA", "오바댜"}, {31, "JON", "요나"}, {32, "MIC", "미가"},
	{33, "NAM", "나훔"}, {34, "HAB", "하박국"}, {35, "ZEP", "스바냐"},
	{36, "HAG", "학개"}, {37, "ZEC", "스가랴"}, {38, "MAL", "말라기"},
	{39, "MAT", "마태복음"}, {40, "MRK", "마가복음"}, {41, "LUK", "누가복음"},
	{42, "JHN", "요한복음"}, {43, "ACT", "사도행전"}, {44, "ROM", "로마서"},
	{45, "1CO", "고린도전서"}, {46, "2CO", "고린도후서"}, {47, "GAL", "갈라디아서"},
	{48, "EPH", "에베소서"}, {49, "PHP", "빌립보서"}, {50, "COL", "골로새서"},
	{51, "1TH", "데살로니가전서"}, {52, "2TH", "데살로니가후서"}, {53, "1TI", "디모데전서"},
	{54, "2TI", "디모데후서"}, {55, "TIT", "디도서"}, {56, "PHM", "빌레몬서"},
	{57, "HEB", "히브리서"}, {58, "JAS", "야고보서"}, {59, "1PE", "베드로전서"},
	{60, "2PE", "베드로후서"}, {61, "1JN", "요한일서"}, {62, "2JN", "요한이서"},
	{63, "3JN", "요한삼서"}, {64, "JUD", "유다서"}, {65, "REV", "요한계시록"},
}

const firstNewTestamentIndex = 39

var booksByCode = func() map[string]Book {
	m := make(map[string]Book, len(Books))
	for _, b := range Books {
		m[b.Code] = b
	}
	return m
}()

// BookByCode looks up a book by its three-letter code.
func BookByCode(code string) (Book, bool) {
	b, ok := booksByCode[strings.ToUpper(code)]
	return b, ok
}

// LocalizedName returns the Korean book name, or fallback for unknown codes.
func LocalizedName(code, fallback string) string {
	if b, ok := BookByCode(code); ok {
		return b.NameKo
	}
	return fallback
}

// IsNewTestament reports whether code is a New Testament book.
func IsNewTestament(code string) bool {
	b, ok := BookByCode(code)
	return ok && b.Index >= firstNewTestamentIndex
}

// ParseCategory maps a user-supplied name to a Category.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case "", CategoryWhole:
		return CategoryWhole, true
	case CategoryOldTestament:
		return CategoryOldTestament, true
	case CategoryNewTestament:
		return CategoryNewTestament, true
	case CategoryGospels:
		return CategoryGospels, true
	case CategoryPsalmsProverbs:
		return CategoryPsalmsProverbs, true
	default:
		return "", false
	}
}

// FilterBooks returns the books in the category, in canonical order.
func FilterBooks(c Category) []Book {
	keep := func(Book) bool { return true }
	switch c {
	case CategoryOldTestament:
		keep = func(b Book) bool { return b.Index < firstNewTestamentIndex }
	case CategoryNewTestament:
		keep = func(b Book) bool { return b.Index >= firstNewTestamentIndex }
	case CategoryGospels:
		keep = func(b Book) bool { return b.Index >= 39 && b.Index <= 42 }
	case CategoryPsalmsProverbs:
		keep = func(b Book) bool { return b.Code == "PSA" || b.Code == "PRO" }
	}
	out := make([]Book, 0, len(Books))
	for _, b := range Books {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}
