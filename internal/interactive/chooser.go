// pattern: Imperative Shell
package interactive

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/pweiskircher/profile-sync/internal/merge"
)

// ErrCancelled reports that the operator quit the prompt instead of
// resolving the conflict.
var ErrCancelled = errors.New("conflict resolution cancelled")

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	pathStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	absentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
)

// TerminalChooser prompts the operator for each conflict over the
// controlling terminal. It satisfies the merge chooser contract.
type TerminalChooser struct{}

func NewTerminalChooser() *TerminalChooser {
	return &TerminalChooser{}
}

func (c *TerminalChooser) Available() bool {
	stdin := os.Stdin.Fd()
	stdout := os.Stdout.Fd()
	inTTY := isatty.IsTerminal(stdin) || isatty.IsCygwinTerminal(stdin)
	outTTY := isatty.IsTerminal(stdout) || isatty.IsCygwinTerminal(stdout)
	return inTTY && outTTY
}

func (c *TerminalChooser) Choose(conflict merge.Conflict) (merge.Choice, error) {
	program := tea.NewProgram(newChooserModel(conflict))
	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("conflict prompt failed: %w", err)
	}

	model, ok := final.(chooserModel)
	if !ok {
		return "", errors.New("conflict prompt returned unexpected model")
	}
	if model.cancelled {
		return "", ErrCancelled
	}
	return model.options[model.cursor].choice, nil
}

type chooserOption struct {
	label  string
	choice merge.Choice
}

type chooserModel struct {
	conflict  merge.Conflict
	options   []chooserOption
	cursor    int
	done      bool
	cancelled bool
}

func newChooserModel(conflict merge.Conflict) chooserModel {
	return chooserModel{
		conflict: conflict,
		options: []chooserOption{
			{label: "keep local value", choice: merge.ChoiceLocal},
			{label: "take org value", choice: merge.ChoiceRemote},
			{label: "skip (leave unresolved)", choice: merge.ChoiceSkip},
		},
	}
}

func (m chooserModel) Init() tea.Cmd {
	return nil
}

func (m chooserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "q", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m chooserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Conflict (%s)", m.conflict.Kind())))
	b.WriteString("  ")
	b.WriteString(pathStyle.Render(m.conflict.ElementPath))
	b.WriteString("\n\n")
	b.WriteString("  local: " + renderValue(m.conflict.LocalValue) + "\n")
	b.WriteString("    org: " + renderValue(m.conflict.RemoteValue) + "\n\n")

	for i, option := range m.options {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "))
			b.WriteString(selectedStyle.Render(option.label))
		} else {
			b.WriteString("  " + option.label)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("up/down move, enter select, q cancel"))
	b.WriteString("\n")
	return b.String()
}

func renderValue(value *string) string {
	if value == nil {
		return absentStyle.Render("(absent)")
	}
	return valueStyle.Render(*value)
}
