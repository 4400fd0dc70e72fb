package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Noah-Huppert/alligator-wasm-alloc"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2E8B57")).
			Padding(0, 1)

	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxHistory = 12

type historyLine struct {
	cmd    string
	result string
	isErr  bool
}

type interactiveModel struct {
	a       *alligator.Allocator
	input   textinput.Model
	history []historyLine
}

func newInteractiveModel(a *alligator.Allocator) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "alloc 64 8"
	ti.Prompt = "> "
	ti.Focus()
	ti.Width = 60

	return &interactiveModel{a: a, input: ti}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			if line == "quit" || line == "q" {
				return m, tea.Quit
			}

			result, err := runCommand(m.a, line)
			m.pushHistory(line, result, err)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) pushHistory(cmd, result string, err error) {
	line := historyLine{cmd: cmd, result: result}
	if err != nil {
		line.result = err.Error()
		line.isErr = true
	}
	m.history = append(m.history, line)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("alligator allocdemo"))
	b.WriteString("\n\n")
	b.WriteString(statStyle.Render(formatMetrics(m.a.Metrics())))
	b.WriteString("\n\n")

	for _, h := range m.history {
		style := resultStyle
		if h.isErr {
			style = errorStyle
		}
		fmt.Fprintf(&b, "> %s\n  %s\n", h.cmd, style.Render(h.result))
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("alloc <size> [align] • dealloc <ptr> [size] [align] • stats • quit"))

	return b.String()
}

func runInteractive(a *alligator.Allocator) error {
	p := tea.NewProgram(newInteractiveModel(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
