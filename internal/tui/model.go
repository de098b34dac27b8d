package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"documind/internal/domain"
)

// QAPort is the TUI-facing subset of the QA service.
type QAPort interface {
	Query(ctx context.Context, question string, topK int) (domain.QueryResult, error)
}

// Model is the Bubble Tea model for the interactive Q&A session.
type Model struct {
	service    QAPort
	input      textinput.Model
	viewport   viewport.Model
	result     domain.QueryResult
	haveResult bool
	corpus     string
	status     string
	cursor     int
	ready      bool
}

// New creates a new TUI model. corpus is a one-line description of what was
// ingested, shown under the header.
func New(service QAPort, corpus string) Model {
	ti := textinput.New()
	ti.Prompt = "? "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		input:    ti,
		viewport: vp,
		corpus:   corpus,
		status:   "Documents loaded. Ask away.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + corpus, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				res, err := m.service.Query(context.Background(), q, 0)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.haveResult = false
				} else {
					m.result = res
					m.haveResult = true
					m.cursor = 0
					m.status = statusLine(res)
				}
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		case "down":
			if n := len(m.result.Citations); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		case "up":
			if n := len(m.result.Citations); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		}
	}
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("DocuMind")
	corpus := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.corpus)
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + corpus + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderResult() string {
	if !m.haveResult {
		return "No answer yet."
	}
	switch m.result.Outcome {
	case domain.OutcomeNoContext:
		return "No relevant content found in the uploaded documents."
	case domain.OutcomeContextOnly:
		return noteStyle.Render("Answer synthesis unavailable, showing retrieved context.") +
			"\n\n" + m.result.Context + "\n\n" + m.renderCitations()
	default:
		return m.result.Answer + "\n\n" + m.renderCitations()
	}
}

func (m Model) renderCitations() string {
	if len(m.result.Citations) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Sources"))
	b.WriteString("\n")
	for i, c := range m.result.Citations {
		line := fmt.Sprintf("%d. %s, page %d (score %.4f)", c.Rank, c.Source, c.Page, c.Score)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusLine(res domain.QueryResult) string {
	switch res.Outcome {
	case domain.OutcomeAnswered:
		return fmt.Sprintf("Answered from %d sources", len(res.Citations))
	case domain.OutcomeContextOnly:
		return fmt.Sprintf("Context only, %d sources", len(res.Citations))
	default:
		return "Nothing relevant found"
	}
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	noteStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true)
)
