package form

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/policyview/internal/core/styles"
)

// TextField is a single-line labelled input with an inline error line.
type TextField struct {
	input   textinput.Model
	name    string
	label   string
	err     string
	focused bool
}

// NewTextField creates a text field. name identifies the field to callers,
// label is rendered above the input.
func NewTextField(name, label, placeholder, value string) *TextField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.Width = 40
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(styles.CurrentPalette.Primary)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.CurrentPalette.Muted)

	if value != "" {
		ti.SetValue(value)
	}

	return &TextField{
		input: ti,
		name:  name,
		label: label,
	}
}

// Update forwards msg to the input when focused and reports whether the
// value changed.
func (f *TextField) Update(msg tea.Msg) (bool, tea.Cmd) {
	if !f.focused {
		return false, nil
	}

	before := f.input.Value()
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f.input.Value() != before, cmd
}

func (f *TextField) View() string {
	titleStyle := styles.FormTitleBlurredStyle
	if f.focused {
		titleStyle = styles.FormTitleStyle
	}

	errLine := ""
	if f.err != "" {
		errLine = styles.FormErrorStyle.Render(f.err)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(f.label),
		f.input.View(),
		errLine,
	)

	borderStyle := styles.FormFieldStyle
	if f.focused {
		borderStyle = styles.FormFieldFocusedStyle
	}
	return borderStyle.Render(content)
}

func (f *TextField) Focus() tea.Cmd {
	f.focused = true
	return f.input.Focus()
}

func (f *TextField) Blur() {
	f.focused = false
	f.input.Blur()
}

// SetError sets the message shown under the input. Empty hides it.
func (f *TextField) SetError(msg string) { f.err = msg }

func (f *TextField) SetValue(v string) { f.input.SetValue(v) }

func (f *TextField) Focused() bool { return f.focused }
func (f *TextField) Value() string { return f.input.Value() }
func (f *TextField) Name() string { return f.name }
func (f *TextField) Label() string { return f.label }
func (f *TextField) Error() string { return f.err }
