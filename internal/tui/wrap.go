package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/bible365/bible365/internal/model"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes lays out verse words separated by single spaces. Read words
// use readStyle, the first unread word currentWordStyle, the rest pendingStyle.
func buildStyledRunes(words []string, highlighted model.IndexSet) []styledRune {
	current := nextUnread(words, highlighted)
	out := make([]styledRune, 0, len(words)*4)
	for i, word := range words {
		if i > 0 {
			out = append(out, styledRune{s: " ", width: 1, isSpace: true})
		}
		style := pendingStyle
		switch {
		case highlighted.Has(i):
			style = readStyle
		case i == current:
			style = currentWordStyle
		}
		for _, r := range word {
			out = append(out, styledRune{
				s:     style.Render(string(r)),
				width: runewidth.RuneWidth(r),
			})
		}
	}
	return out
}

// nextUnread returns the first word index not highlighted, or -1.
func nextUnread(words []string, highlighted model.IndexSet) int {
	for i := range words {
		if !highlighted.Has(i) {
			return i
		}
	}
	return -1
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
