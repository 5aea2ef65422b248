package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yllada/vpn-connect/confirm"
)

// Prompter asks the user to answer a confirmation prompt.
type Prompter func(ctx context.Context, prompt string) (confirm.Result, error)

type promptKeys struct {
	Confirm key.Binding
	Decline key.Binding
	Abandon key.Binding
}

func (k promptKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Decline, k.Abandon}
}

func (k promptKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultPromptKeys = promptKeys{
	Confirm: key.NewBinding(key.WithKeys("y", "Y", "enter"), key.WithHelp("y/enter", "confirm")),
	Decline: key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "decline")),
	Abandon: key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc", "dismiss")),
}

// promptModel is a one-question bubbletea program.
type promptModel struct {
	prompt string
	keys   promptKeys
	help   help.Model
	title  lipgloss.Style
	result confirm.Result
	done   bool
}

func newPromptModel(prompt string) promptModel {
	return promptModel{
		prompt: prompt,
		keys:   defaultPromptKeys,
		help:   help.New(),
		title:  lipgloss.NewStyle().Bold(true),
		result: confirm.Abandoned,
	}
}

func (m promptModel) Init() tea.Cmd { return nil }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		m.result = confirm.Confirmed
	case key.Matches(keyMsg, m.keys.Decline):
		m.result = confirm.Declined
	case key.Matches(keyMsg, m.keys.Abandon):
		m.result = confirm.Abandoned
	default:
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

func (m promptModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.title.Render(m.prompt))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// TerminalPrompter runs the prompt as a bubbletea program on in and out.
// A killed or interrupted program counts as abandoned.
func TerminalPrompter(in io.Reader, out io.Writer) Prompter {
	return func(ctx context.Context, prompt string) (confirm.Result, error) {
		p := tea.NewProgram(newPromptModel(prompt),
			tea.WithContext(ctx),
			tea.WithInput(in),
			tea.WithOutput(out),
		)
		final, err := p.Run()
		if err != nil {
			if ctx.Err() != nil {
				return confirm.Abandoned, nil
			}
			return confirm.Abandoned, fmt.Errorf("prompt failed: %w", err)
		}
		m, ok := final.(promptModel)
		if !ok {
			return confirm.Abandoned, nil
		}
		return m.result, nil
	}
}

// NonInteractivePrompter abandons every prompt. It is used when stdin is
// not a terminal.
func NonInteractivePrompter(out io.Writer) Prompter {
	return func(_ context.Context, prompt string) (confirm.Result, error) {
		fmt.Fprintf(out, "%s\nConfirmation requires an interactive terminal; dismissed.\n", prompt)
		return confirm.Abandoned, nil
	}
}
