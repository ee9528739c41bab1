// Package components provides reusable TUI components.
package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/policyview/internal/core/styles"
)

// HelpDialogSection groups related bindings under a title.
type HelpDialogSection struct {
	Title    string
	Bindings []key.Binding
}

// HelpDialog displays all available keyboard shortcuts.
type HelpDialog struct {
	title    string
	sections []HelpDialogSection
}

// NewHelpDialog creates a new help dialog with the given sections.
func NewHelpDialog(title string, sections ...HelpDialogSection) *HelpDialog {
	return &HelpDialog{
		title:    title,
		sections: sections,
	}
}

// View renders the help dialog.
func (h *HelpDialog) View() string {
	var lines []string
	separator := styles.TextMutedStyle.Render("─────────────────────────")

	for i, section := range h.sections {
		if section.Title != "" {
			if i > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, styles.HeaderStyle.Render(section.Title), separator)
		}

		for _, b := range section.Bindings {
			if !b.Enabled() {
				continue
			}
			help := b.Help()
			lines = append(lines, formatKeyDesc(help.Key, help.Desc))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.HeaderStyle.Render(h.title),
		"",
		strings.Join(lines, "\n"),
		"",
		styles.FormHelpStyle.Render("esc/? close"),
	)

	return styles.HelpModalStyle.Render(content)
}

// Overlay renders the dialog centered in a width x height area, replacing
// the background.
func (h *HelpDialog) Overlay(width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, h.View())
}

// formatKeyDesc formats a key-description pair with consistent alignment.
func formatKeyDesc(key, desc string) string {
	const keyWidth = 12

	paddedKey := key + Pad(keyWidth-lipgloss.Width(key))
	return styles.HelpKeyStyle.Render(paddedKey) + styles.HelpDescStyle.Render(desc)
}
