package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/fmrimap/internal/selection"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "Q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// inputQuit omits q so it can be typed.
var inputQuit = key.NewBinding(
	key.WithKeys("esc", "ctrl+c"),
	key.WithHelp("esc", "quit"),
)

// TUI is a Prompter backed by one bubbletea program per prompt.
type TUI struct {
	in   io.Reader
	out  io.Writer
	opts []tea.ProgramOption
}

// NewTUI returns a TUI prompter. Nil in/out default to stdin/stdout.
func NewTUI(in io.Reader, out io.Writer, opts ...tea.ProgramOption) *TUI {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &TUI{in: in, out: out, opts: opts}
}

func (t *TUI) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	opts := append([]tea.ProgramOption{
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
		tea.WithContext(ctx),
	}, t.opts...)

	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("prompt: %w", err)
	}
	return final, nil
}

// Choose runs an arrow-key menu.
func (t *TUI) Choose(ctx context.Context, req ChooseRequest) (int, error) {
	if len(req.Options) == 0 {
		return 0, errors.New("no options to choose from")
	}
	final, err := t.run(ctx, newChooser(req))
	if err != nil {
		return 0, err
	}
	m := final.(chooser)
	if m.aborted {
		return 0, ErrAbort
	}
	return m.cursor, nil
}

// Input runs a text input with tab completion.
func (t *TUI) Input(ctx context.Context, req InputRequest) (string, error) {
	final, err := t.run(ctx, newInput(req))
	if err != nil {
		return "", err
	}
	m := final.(input)
	if m.aborted {
		return "", ErrAbort
	}
	return m.value(), nil
}

type chooser struct {
	title   string
	options []string
	cursor  int
	done    bool
	aborted bool
}

func newChooser(req ChooseRequest) chooser {
	c := chooser{title: req.Title, options: req.Options}
	if req.Default >= 0 && req.Default < len(req.Options) {
		c.cursor = req.Default
	}
	return c
}

func (m chooser) Init() tea.Cmd {
	return nil
}

func (m chooser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, keys.Quit):
		m.aborted = true
		return m, tea.Quit
	case key.Matches(km, keys.Up):
		m.cursor = (m.cursor - 1 + len(m.options)) % len(m.options)
	case key.Matches(km, keys.Down):
		m.cursor = (m.cursor + 1) % len(m.options)
	case key.Matches(km, keys.Select):
		m.done = true
		return m, tea.Quit
	case km.Type == tea.KeyRunes && len(km.Runes) == 1:
		// Digits jump to that option.
		if d := int(km.Runes[0] - '0'); d >= 1 && d <= 9 && d <= len(m.options) {
			m.cursor = d - 1
		}
	}
	return m, nil
}

func (m chooser) View() string {
	if m.done || m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + opt))
		} else {
			b.WriteString(optionStyle.Render("  " + opt))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move • enter select • q quit"))
	b.WriteString("\n")
	return b.String()
}

type input struct {
	title    string
	field    textinput.Model
	complete func(string) []string
	done     bool
	aborted  bool
}

func newInput(req InputRequest) input {
	ti := textinput.New()
	ti.Placeholder = req.Placeholder
	ti.Prompt = "> "
	ti.CharLimit = 4096
	ti.Width = 80
	ti.ShowSuggestions = true
	ti.Focus()

	m := input{title: req.Title, field: ti, complete: req.Complete}
	if m.complete != nil {
		m.field.SetSuggestions(m.complete(""))
	} else {
		m.field.SetSuggestions(req.Suggestions)
	}
	return m
}

func (m input) value() string {
	return strings.TrimSpace(m.field.Value())
}

func (m input) Init() tea.Cmd {
	return textinput.Blink
}

func (m input) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, inputQuit):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(km, keys.Select):
			if selection.IsAbort(m.value()) {
				m.aborted = true
			}
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	if m.complete != nil {
		m.field.SetSuggestions(m.complete(m.field.Value()))
	}
	return m, cmd
}

func (m input) View() string {
	if m.done || m.aborted {
		return ""
	}
	return titleStyle.Render(m.title) + "\n" +
		m.field.View() + "\n" +
		helpStyle.Render("tab complete • enter accept • esc quit") + "\n"
}
