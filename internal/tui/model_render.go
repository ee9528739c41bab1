package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/policyview/internal/core/config"
	"github.com/colonyops/policyview/internal/core/result"
	"github.com/colonyops/policyview/internal/core/styles"
	"github.com/colonyops/policyview/internal/tui/components"
)

// View renders the form, status line, result panel and key help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.showHelp {
		return m.helpDialog().Overlay(max(m.width, 40), max(m.height, 20))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.dialog.View(),
		m.statusLine(),
		m.resultPanel(),
		m.help.View(m.keys),
	)
}

func (m Model) statusLine() string {
	var indicator string
	if m.ctrl.IsValid() {
		indicator = styles.StatusOKStyle.Render("● ready")
	} else {
		indicator = styles.StatusNotOKStyle.Render("○ incomplete")
	}

	line := indicator
	if m.inFlight > 0 {
		line += "  " + m.spinner.View() + styles.TextMutedStyle.Render(fmt.Sprintf(" looking up (%d)", m.inFlight))
	}
	if m.status != "" {
		style := styles.ErrorStyle
		if m.statusOK {
			style = styles.TextMutedStyle
		}
		line += "  " + style.Render(m.status)
	}
	return line
}

func (m Model) resultPanel() string {
	title := "Result"
	if v := m.area.Version(); v > 0 {
		title = fmt.Sprintf("Result #%d", v)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.FormTitleBlurredStyle.Render(title),
		styles.ResultStyle.Render(m.viewport.View()),
	)
}

func (m Model) helpDialog() *components.HelpDialog {
	title := "policyview"
	if v := m.deps.BuildInfo.Version; v != "" {
		title += " " + v
	}
	return components.NewHelpDialog(title,
		components.HelpDialogSection{Title: "Form", Bindings: []key.Binding{m.keys.Submit, m.keys.Next, m.keys.Prev}},
		components.HelpDialogSection{Title: "Result", Bindings: []key.Binding{m.keys.PageUp, m.keys.PageDown}},
		components.HelpDialogSection{Title: "General", Bindings: []key.Binding{m.keys.Help, m.keys.Quit}},
	)
}

// layout sizes the viewport to the space left under the form.
func (m *Model) layout() {
	// result border and padding take two columns on each side
	m.viewport.Width = max(m.width-4, 10)

	used := lipgloss.Height(m.dialog.View()) +
		1 + // status line
		1 + // result title
		2 + // result border
		1 // key help
	m.viewport.Height = max(m.height-used, minViewportHeight)
}

// renderResult converts the area contents for the current width.
func (m *Model) renderResult() {
	raw := m.area.HTML()
	if raw == "" {
		return
	}

	var (
		out string
		err error
	)
	if m.deps.Config.TUI.Render == config.RenderPlain {
		out, err = result.Markdown(raw)
	} else {
		out, err = result.Render(raw, m.viewport.Width)
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("render result")
		out = result.Strip(raw)
	}
	m.viewport.SetContent(out)
}
