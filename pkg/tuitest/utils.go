// Package tuitest provides testing utilities for TUI components.
package tuitest

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes ANSI escape codes and trailing whitespace so views can
// be compared as plain text.
func StripANSI(s string) string {
	s = ansi.Strip(s)
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		result = append(result, strings.TrimRight(line, " "))
	}
	return strings.TrimRight(strings.Join(result, "\n"), "\n")
}

// KeyPress creates a key message for a single rune.
func KeyPress(key rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{key}}
}

// Type returns one key message per rune of s.
func Type(s string) []tea.Msg {
	msgs := make([]tea.Msg, 0, len(s))
	for _, r := range s {
		msgs = append(msgs, KeyPress(r))
	}
	return msgs
}

// KeyEnter creates an enter key message.
func KeyEnter() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }

// KeyTab creates a tab key message.
func KeyTab() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyTab} }

// KeyShiftTab creates a shift+tab key message.
func KeyShiftTab() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyShiftTab} }

// KeyBackspace creates a backspace key message.
func KeyBackspace() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyBackspace} }

// KeyEsc creates an escape key message.
func KeyEsc() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEsc} }

// KeyCtrlC creates a ctrl+c key message.
func KeyCtrlC() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyCtrlC} }

// WindowSize creates a window size message.
func WindowSize(w, h int) tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: w, Height: h}
}
