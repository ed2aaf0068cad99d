// Package progressui provides the Bubble Tea progress browser.
package progressui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bible365/bible365/internal/bible"
	"github.com/bible365/bible365/internal/model"
	"github.com/bible365/bible365/internal/report"
)

const tabOverview = 0

var categoryTabs = []struct {
	title    string
	category bible.Category
}{
	{"전체", bible.CategoryWhole},
	{"구약", bible.CategoryOldTestament},
	{"신약", bible.CategoryNewTestament},
	{"복음서", bible.CategoryGospels},
	{"시편·잠언", bible.CategoryPsalmsProverbs},
}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea progress browser.
type Model struct {
	src   report.Source
	modes []model.Mode
	mode  int

	tabs      []string
	activeTab int
	overview  viewport.Model
	books     table.Model

	width  int
	height int
}

// NewModel constructs a browser over modes. The first mode is shown first.
func NewModel(src report.Source, modes []model.Mode) *Model {
	if len(modes) == 0 {
		modes = []model.Mode{model.Personal{}}
	}
	tabs := []string{"Overview"}
	for _, t := range categoryTabs {
		tabs = append(tabs, t.title)
	}
	m := &Model{
		src:      src,
		modes:    modes,
		tabs:     tabs,
		overview: viewport.New(0, 0),
		books: table.New(
			table.WithColumns(bookColumns()),
			table.WithHeight(1),
		),
	}
	m.books.SetStyles(tableStyles())
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "m":
			m.mode = (m.mode + 1) % len(m.modes)
			m.refresh()
			return m, nil
		case "g", "home":
			if m.activeTab == tabOverview {
				m.overview.GotoTop()
			} else {
				m.books.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabOverview {
				m.overview.GotoBottom()
			} else {
				m.books.GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabOverview {
			m.overview, cmd = m.overview.Update(msg)
		} else {
			m.books, cmd = m.books.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(headerStyle.Render("Nav: left/right  Scroll: up/down  Mode: m  Quit: q"), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) currentMode() model.Mode {
	return m.modes[m.mode]
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := maxInt(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = maxInt(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.books.SetWidth(m.width)
	m.books.SetHeight(maxInt(1, bodyHeight-1))
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabOverview {
		m.books.Blur()
	} else {
		m.books.Focus()
	}
	m.refresh()
}

func (m *Model) refresh() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.src, m.currentMode(), width))
	if m.activeTab > tabOverview {
		rows := report.BuildRows(m.src, m.currentMode(), categoryTabs[m.activeTab-1].category)
		m.books.SetRows(bookRows(rows))
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	mode := fmt.Sprintf("Mode: %s (%d/%d)", model.ModeDisplayName(m.currentMode()), m.mode+1, len(m.modes))
	return tabs + "\n" + padLine(headerStyle.Render(truncateLine(mode, m.width)), m.width)
}

func (m *Model) renderBody() string {
	if m.activeTab == tabOverview {
		return m.overview.View()
	}
	return tableMutedStyle.Render(m.books.View())
}

func renderOverview(src report.Source, mode model.Mode, width int) string {
	p := src.EnsureProfile(mode)
	booksDone := 0
	for _, b := range bible.Books {
		sum := src.BookSummary(b.Code, mode)
		if sum.TotalVerseCount > 0 && sum.CompletedVerseCount >= sum.TotalVerseCount {
			booksDone++
		}
	}
	total := "?"
	if p.Global.TotalVerseCount > 0 {
		total = strconv.Itoa(p.Global.TotalVerseCount)
	}
	cards := []string{
		metricCard("Verses", fmt.Sprintf("%d/%s", p.Global.CompletedVerseCount, total)),
		metricCard("Bible", fmt.Sprintf("%.1f%%", src.GlobalProgress(mode)*100)),
		metricCard("Rounds", strconv.Itoa(src.GlobalCompletionCount(mode))),
		metricCard("Books done", fmt.Sprintf("%d/%d", booksDone, len(bible.Books))),
	}
	var out string
	if width < 80 {
		out = strings.Join(cards, "\n")
	} else {
		out = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	barWidth := report.BarWidthFor(width)
	return out + "\n\n" + report.ProgressBar(src.GlobalProgress(mode), barWidth)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func bookColumns() []table.Column {
	return []table.Column{
		{Title: "Book", Width: 5},
		{Title: "Name", Width: 14},
		{Title: "Verses", Width: 11},
		{Title: "Progress", Width: 9},
		{Title: "Rounds", Width: 6},
	}
}

func bookRows(rows []report.Row) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		total := "?"
		if r.Total > 0 {
			total = strconv.Itoa(r.Total)
		}
		out = append(out, table.Row{
			r.Code,
			r.Name,
			fmt.Sprintf("%d/%s", r.Completed, total),
			fmt.Sprintf("%.1f%%", r.Ratio()*100),
			strconv.Itoa(r.CompletionCount),
		})
	}
	return out
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// truncateLine cuts s to width runes, ending in "..." when cut.
func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
