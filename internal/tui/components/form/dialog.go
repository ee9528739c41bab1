// Package form provides the text field group used by the lookup screen.
package form

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/policyview/internal/core/styles"
)

// Change reports that a field's value was edited.
type Change struct {
	Field string
	Value string
}

// Dialog manages focus cycling across a fixed set of text fields. Submit
// and cancel keys are left to the owner.
type Dialog struct {
	Title        string
	fields       []*TextField
	focusedField int
}

// NewDialog creates a dialog and focuses the first field.
func NewDialog(title string, fields ...*TextField) *Dialog {
	d := &Dialog{
		fields: fields,
		Title:  title,
	}
	if len(fields) > 0 {
		fields[0].Focus()
	}
	return d
}

// Update cycles focus on tab and shift+tab and sends everything else to the
// focused field. The returned Change is non-nil when a value was edited.
func (d *Dialog) Update(msg tea.Msg) (*Change, tea.Cmd) {
	if len(d.fields) == 0 {
		return nil, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down":
			return nil, d.focus((d.focusedField + 1) % len(d.fields))
		case "shift+tab", "up":
			return nil, d.focus((d.focusedField - 1 + len(d.fields)) % len(d.fields))
		}
	}

	field := d.fields[d.focusedField]
	changed, cmd := field.Update(msg)
	if !changed {
		return nil, cmd
	}
	return &Change{Field: field.Name(), Value: field.Value()}, cmd
}

// Focus moves focus to the named field. Unknown names are ignored.
func (d *Dialog) Focus(name string) tea.Cmd {
	for i, f := range d.fields {
		if f.Name() == name {
			return d.focus(i)
		}
	}
	return nil
}

// Field returns the named field or nil.
func (d *Dialog) Field(name string) *TextField {
	for _, f := range d.fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// Focused returns the name of the focused field.
func (d *Dialog) Focused() string {
	if len(d.fields) == 0 {
		return ""
	}
	return d.fields[d.focusedField].Name()
}

// Values returns field values keyed by name.
func (d *Dialog) Values() map[string]string {
	out := make(map[string]string, len(d.fields))
	for _, f := range d.fields {
		out[f.Name()] = f.Value()
	}
	return out
}

func (d *Dialog) View() string {
	parts := []string{styles.HeaderStyle.Render(d.Title), ""}
	for i, field := range d.fields {
		if i > 0 {
			parts = append(parts, "")
		}
		parts = append(parts, field.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (d *Dialog) focus(i int) tea.Cmd {
	if i == d.focusedField && d.fields[i].Focused() {
		return nil
	}
	d.fields[d.focusedField].Blur()
	d.focusedField = i
	return d.fields[i].Focus()
}
