// Package tui provides the Bubble Tea reading interface.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bible365/bible365/internal/bible"
	"github.com/bible365/bible365/internal/model"
	"github.com/bible365/bible365/internal/session"
	"github.com/bible365/bible365/internal/speech"
)

// Model implements the Bubble Tea reading UI. Recognized text is either
// typed into the input line (partial while typing, final on enter) or
// streamed from a speech source.
type Model struct {
	ctx     context.Context
	session *session.Session
	events  <-chan speech.Event
	input   textinput.Model

	width  int
	height int

	status string
	err    error
}

type speechMsg speech.Event

type speechDoneMsg struct{}

var (
	readStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Bold(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	modalStyle       = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#C89A3A")).
				Padding(1, 2)
)

// NewModel constructs the reading model. sess must already have a verse open.
// events may be nil when only typed input is used.
func NewModel(ctx context.Context, sess *session.Session, events <-chan speech.Event) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "읽은 내용을 입력하세요"
	input.CharLimit = 0
	input.Focus()
	return &Model{
		ctx:     ctx,
		session: sess,
		events:  events,
		input:   input,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForSpeech())
}

func (m *Model) waitForSpeech() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return speechDoneMsg{}
		}
		return speechMsg(ev)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = maxInt(10, int(float64(m.width)*0.70)-lipgloss.Width(m.input.Prompt))
		return m, nil
	case speechMsg:
		m.apply(speech.Event(msg))
		return m, m.waitForSpeech()
	case speechDoneMsg:
		m.status = "speech source closed"
		m.events = nil
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
		return m, tea.Quit
	}
	if m.session.RoundCompleted() {
		if msg.Type == tea.KeyEnter {
			if err := m.session.AcknowledgeRound(m.ctx); err != nil {
				m.err = err
				return m, nil
			}
			m.status = "new round started"
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlN:
		m.navigate(m.session.Next, "end of book")
		return m, nil
	case tea.KeyCtrlP:
		m.navigate(m.session.Previous, "start of book")
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		if text != "" {
			m.apply(speech.Event{Text: text, IsFinal: true})
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before && strings.TrimSpace(after) != "" {
		m.apply(speech.Event{Text: after, IsFinal: false})
	}
	return m, cmd
}

func (m *Model) navigate(move func(context.Context) (bool, error), edge string) {
	m.input.SetValue("")
	ok, err := move(m.ctx)
	switch {
	case err != nil:
		m.err = err
	case !ok:
		m.status = edge
	default:
		m.status = ""
		m.err = nil
	}
}

func (m *Model) apply(ev speech.Event) {
	out, err := m.session.HandleEvent(m.ctx, ev)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	if out.Update.BookCompleted {
		book := m.session.Verse().BookCode
		m.status = fmt.Sprintf("%s 완독!", bible.LocalizedName(book, book))
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.session.RoundCompleted() && m.width > 0 && m.height > 0 {
		return m.renderModal()
	}
	styled := buildStyledRunes(m.session.Words(), m.session.Highlighted())
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styled)
	}
	contentWidth := maxInt(1, int(float64(m.width)*0.70))
	wrapped := wrapStyledRunes(styled, contentWidth)
	parts := []string{headerStyle.Render(m.renderHeader()), "", wrapped, "", m.input.View()}
	if m.err != nil {
		parts = append(parts, errorStyle.Render(m.err.Error()))
	} else if m.status != "" {
		parts = append(parts, footerStyle.Render(m.status))
	}
	content := lipgloss.NewStyle().Width(contentWidth).Render(strings.Join(parts, "\n"))
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footer := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.renderFooter())
	return body + "\n" + footer
}

func (m *Model) renderHeader() string {
	v := m.session.Verse()
	return fmt.Sprintf("%s %d:%d · %s",
		bible.LocalizedName(v.BookCode, v.BookCode), v.Chapter, v.Number,
		model.ModeDisplayName(m.session.Mode()))
}

func (m *Model) renderFooter() string {
	return footerStyle.Render(footerText(
		m.session.VerseProgress(),
		m.session.BookProgress(),
		m.session.GlobalProgress(),
		m.session.GlobalCompletionCount(),
	))
}

func footerText(verse, book, global float64, rounds int) string {
	segments := []string{
		fmt.Sprintf("Verse %d%%", int(verse*100)),
		fmt.Sprintf("Book %.1f%%", book*100),
		fmt.Sprintf("Bible %.1f%%", global*100),
		fmt.Sprintf("Rounds %d", rounds),
		"ctrl+n/ctrl+p: verse  esc: quit",
	}
	return strings.Join(segments, "  ")
}

func (m *Model) renderModal() string {
	body := strings.Join([]string{
		headerStyle.Render(fmt.Sprintf("성경 %d독 완료!", m.session.GlobalCompletionCount())),
		"",
		"Enter를 누르면 새 회차를 시작합니다.",
		footerStyle.Render("완독 횟수는 유지됩니다."),
	}, "\n")
	box := modalStyle.Render(body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
