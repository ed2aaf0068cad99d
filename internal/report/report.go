// Package report renders reading progress as plain-text tables and bars.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bible365/bible365/internal/bible"
	"github.com/bible365/bible365/internal/model"
)

const (
	barFull  = '█'
	barEmpty = '░'

	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// Source provides progress summaries.
type Source interface {
	BookSummary(bookCode string, mode model.Mode) model.BookProgressSummary
	GlobalProgress(mode model.Mode) float64
	GlobalCompletionCount(mode model.Mode) int
	EnsureProfile(mode model.Mode) model.ReadingProfile
}

// Row is one book line of the progress table.
type Row struct {
	Code            string
	Name            string
	Completed       int
	Total           int
	CompletionCount int
}

// Ratio returns Completed/Total in [0, 1], or 0 when Total is unknown.
func (r Row) Ratio() float64 {
	if r.Total <= 0 {
		return 0
	}
	return math.Min(1, float64(r.Completed)/float64(r.Total))
}

// Options controls rendering.
type Options struct {
	BarWidth int
	Color    bool
}

// BuildRows returns one row per book of category, in canonical order.
func BuildRows(src Source, mode model.Mode, category bible.Category) []Row {
	books := bible.FilterBooks(category)
	rows := make([]Row, 0, len(books))
	for _, b := range books {
		sum := src.BookSummary(b.Code, mode)
		rows = append(rows, Row{
			Code:            b.Code,
			Name:            bible.LocalizedName(b.Code, b.Code),
			Completed:       sum.CompletedVerseCount,
			Total:           sum.TotalVerseCount,
			CompletionCount: sum.CompletionCount,
		})
	}
	return rows
}

// RenderBooks writes the per-book progress table.
func RenderBooks(w io.Writer, rows []Row, opts Options) error {
	headers := []string{"Book", "Name", "Verses", "Progress", "Rounds"}
	if opts.BarWidth > 0 {
		headers = append(headers, "")
	}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		total := "?"
		if r.Total > 0 {
			total = strconv.Itoa(r.Total)
		}
		line := []string{
			r.Code,
			r.Name,
			fmt.Sprintf("%d/%s", r.Completed, total),
			formatPercent(r.Ratio()),
			strconv.Itoa(r.CompletionCount),
		}
		if opts.BarWidth > 0 {
			line = append(line, ProgressBar(r.Ratio(), opts.BarWidth))
		}
		cells = append(cells, line)
	}

	lines := formatTable(headers, cells, map[int]bool{2: true, 3: true, 4: true})
	for i, line := range lines {
		if opts.Color && i > 0 {
			line = colorize(line, rows[i-1].Ratio())
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSummary writes the global progress of a mode.
func RenderSummary(w io.Writer, src Source, mode model.Mode, opts Options) error {
	p := src.EnsureProfile(mode)
	ratio := src.GlobalProgress(mode)
	total := "?"
	if p.Global.TotalVerseCount > 0 {
		total = strconv.Itoa(p.Global.TotalVerseCount)
	}
	line := fmt.Sprintf("%s: %d/%s verses (%s), completed %d time(s)",
		model.ModeDisplayName(mode),
		p.Global.CompletedVerseCount,
		total,
		formatPercent(ratio),
		src.GlobalCompletionCount(mode),
	)
	if opts.BarWidth > 0 {
		bar := ProgressBar(ratio, opts.BarWidth)
		if opts.Color {
			bar = colorize(bar, ratio)
		}
		line += "\n" + bar
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// ProgressBar renders ratio as a bar of width cells.
func ProgressBar(ratio float64, width int) string {
	if width <= 0 {
		return ""
	}
	ratio = math.Max(0, math.Min(1, ratio))
	filled := int(math.Round(ratio * float64(width)))
	return strings.Repeat(string(barFull), filled) + strings.Repeat(string(barEmpty), width-filled)
}

func formatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func colorize(s string, ratio float64) string {
	switch {
	case ratio >= 1:
		return colorGreen + s + colorReset
	case ratio > 0:
		return colorYellow + s + colorReset
	default:
		return s
	}
}

// VerseTotals reports the verse count of a book when known.
type VerseTotals interface {
	TotalVerses(bookCode string) (int, bool)
}

// RenderCatalog lists books with their Korean names and verse totals.
func RenderCatalog(w io.Writer, books []bible.Book, totals VerseTotals) error {
	cells := make([][]string, 0, len(books))
	for _, b := range books {
		n := "?"
		if totals != nil {
			if v, ok := totals.TotalVerses(b.Code); ok {
				n = strconv.Itoa(v)
			}
		}
		cells = append(cells, []string{strconv.Itoa(b.Index + 1), b.Code, b.NameKo, n})
	}
	for _, line := range formatTable([]string{"#", "Book", "Name", "Verses"}, cells, map[int]bool{0: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
