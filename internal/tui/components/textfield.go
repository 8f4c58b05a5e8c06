package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrFieldRequired is returned when a required field is empty.
var ErrFieldRequired = fieldError("this field is required")

type fieldError string

func (e fieldError) Error() string { return string(e) }

var (
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	focusedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	blurredStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	requiredStyle = errorStyle
)

// TextField is a labeled single-line input. Validation runs on demand, so a
// half-typed path is not flagged while the user is still typing; the error
// from the last Validate stays visible until the value changes.
type TextField struct {
	label     string
	input     textinput.Model
	required  bool
	validator func(string) error
	err       error
}

// NewTextField creates a text field with a placeholder shown while it is empty.
func NewTextField(label, placeholder string) TextField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	ti.CharLimit = 4096
	ti.Width = 60

	return TextField{label: label, input: ti}
}

// WithRequired marks the field as required.
func (t TextField) WithRequired(required bool) TextField {
	t.required = required
	return t
}

// WithValidator sets the function Validate runs on non-empty values.
func (t TextField) WithValidator(fn func(string) error) TextField {
	t.validator = fn
	return t
}

// WithValue sets the initial value.
func (t TextField) WithValue(value string) TextField {
	t.SetValue(value)
	return t
}

// Focus focuses the text field.
func (t *TextField) Focus() tea.Cmd {
	return t.input.Focus()
}

// Init implements tea.Model.
func (t TextField) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (t TextField) Update(msg tea.Msg) (TextField, tea.Cmd) {
	before := t.input.Value()
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	if t.input.Value() != before {
		t.err = nil
	}
	return t, cmd
}

// View implements tea.Model.
func (t TextField) View() string {
	var b strings.Builder

	b.WriteString(labelStyle.Render(t.label))
	if t.required {
		b.WriteString(requiredStyle.Render(" *"))
	}
	b.WriteString("\n")

	style := blurredStyle
	if t.input.Focused() {
		style = focusedStyle
	}
	b.WriteString(style.Render(t.input.View()))

	if t.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("✗ " + t.err.Error()))
	}
	return b.String()
}

// Value returns the current value.
func (t TextField) Value() string {
	return t.input.Value()
}

// SetValue replaces the value and moves the cursor to its end.
func (t *TextField) SetValue(v string) {
	t.input.SetValue(v)
	t.input.CursorEnd()
}

// SetError shows err under the field until the value changes.
func (t *TextField) SetError(err error) {
	t.err = err
}

// Validate checks the value and keeps the result for View.
func (t *TextField) Validate() error {
	switch {
	case t.required && strings.TrimSpace(t.input.Value()) == "":
		t.err = ErrFieldRequired
	case t.validator != nil:
		t.err = t.validator(t.input.Value())
	default:
		t.err = nil
	}
	return t.err
}
