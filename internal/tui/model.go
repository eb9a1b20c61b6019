package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reportgen/internal/domain"
	"reportgen/internal/report"
	"reportgen/internal/service"
	"reportgen/internal/similarity"
	"reportgen/internal/tokenize"
)

// ReportPort is the TUI-facing subset of the report service.
type ReportPort interface {
	Generate(ctx context.Context, req service.GenerateRequest) (*domain.Report, error)
	Export(dir string) (string, error)
}

// Model is the Bubble Tea model for the report generator.
type Model struct {
	service   ReportPort
	document  domain.Document
	owner     string
	exportDir string
	input     textinput.Model
	viewport  viewport.Model
	overview  string
	status    string
	report    *domain.Report
	ready     bool
}

// New creates a model for one loaded document. overview is shown under the header.
func New(svc ReportPort, doc domain.Document, overview, owner, exportDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Enter a prompt and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:   svc,
		document:  doc,
		owner:     owner,
		exportDir: exportDir,
		input:     ti,
		viewport:  vp,
		overview:  overview,
		status:    fmt.Sprintf("Loaded %s (%d pages). Enter to generate, Ctrl+S to export.", doc.Name, doc.Pages),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := reportBoxStyle.GetFrameSize()
		_, qh := promptBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and overview, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderReport())
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlS:
			path, err := m.service.Export(m.exportDir)
			if err != nil {
				m.status = "Error: " + domain.UserMessage(err)
			} else {
				m.status = "Saved " + path
			}
			return m, nil
		case tea.KeyEnter:
			rep, err := m.service.Generate(context.Background(), service.GenerateRequest{
				Prompt:   m.input.Value(),
				Document: &m.document,
				Owner:    m.owner,
			})
			if err != nil {
				m.status = "Error: " + domain.UserMessage(err)
				return m, nil
			}
			m.report = rep
			m.status = fmt.Sprintf("%d matching sentences for %q", rep.Matches, rep.Prompt)
			m.viewport.SetContent(m.renderReport())
			m.viewport.GotoTop()
			return m, nil
		case tea.KeyPgDown, tea.KeyPgUp, tea.KeyDown, tea.KeyUp:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and the current report.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Report Generator")
	overview := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.overview)
	input := promptBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	body := reportBoxStyle.Render(m.viewport.View())
	return header + "\n" + overview + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderReport() string {
	if m.report == nil {
		return "No report yet."
	}
	return highlightBestLine(m.report.Content, m.report.Prompt)
}

var (
	reportBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	promptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// highlightBestLine emphasizes the extracted line most similar to prompt.
func highlightBestLine(content, prompt string) string {
	lines := strings.Split(content, "\n")
	best := bestLine(lines, prompt)
	if best < 0 {
		return content
	}
	lines[best] = highlightStyle.Render(lines[best])
	return strings.Join(lines, "\n")
}

// bestLine returns the index of the extracted line most similar to prompt,
// or -1 when there is no extracted section, no overlap, or only the
// no-results line.
func bestLine(lines []string, prompt string) int {
	start := -1
	for i, l := range lines {
		if l == report.ExtractedLabel {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return -1
	}
	query := tokenize.NewSet(prompt)
	best, bestScore := -1, 0.0
	for i := start; i < len(lines) && lines[i] != ""; i++ {
		if lines[i] == report.NoResultsLine {
			continue
		}
		if score := similarity.Jaccard(query, tokenize.NewSet(lines[i])); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}
