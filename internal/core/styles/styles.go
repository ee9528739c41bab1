// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI styles.
	HeaderStyle    lipgloss.Style
	SuccessStyle   lipgloss.Style
	WarningStyle   lipgloss.Style
	ErrorStyle     lipgloss.Style
	TextMutedStyle lipgloss.Style

	TextPrimaryStyle   lipgloss.Style
	TextSecondaryStyle lipgloss.Style

	// TUI form styles.
	FormTitleStyle        lipgloss.Style
	FormTitleBlurredStyle lipgloss.Style
	FormFieldStyle        lipgloss.Style
	FormFieldFocusedStyle lipgloss.Style
	FormErrorStyle        lipgloss.Style
	FormHelpStyle         lipgloss.Style

	// Result panel.
	ResultStyle      lipgloss.Style
	StatusOKStyle    lipgloss.Style
	StatusNotOKStyle lipgloss.Style

	// Help overlay.
	HelpModalStyle lipgloss.Style
	HelpKeyStyle   lipgloss.Style
	HelpDescStyle  lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	HeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error)
	TextMutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	TextPrimaryStyle = lipgloss.NewStyle().Foreground(p.Primary)
	TextSecondaryStyle = lipgloss.NewStyle().Foreground(p.Secondary)

	FormTitleStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	FormTitleBlurredStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	FormFieldStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Muted).
		PaddingLeft(1)
	FormFieldFocusedStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Primary).
		PaddingLeft(1)
	FormErrorStyle = lipgloss.NewStyle().
		Foreground(p.Error)
	FormHelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted)

	ResultStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Padding(0, 1)
	StatusOKStyle = lipgloss.NewStyle().
		Foreground(p.Success).
		Bold(true)
	StatusNotOKStyle = lipgloss.NewStyle().
		Foreground(p.Muted)

	HelpModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Padding(1, 2)
	HelpKeyStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	HelpDescStyle = lipgloss.NewStyle().
		Foreground(p.Foreground)
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func hexPtr(c lipgloss.Color) *string {
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() ansi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig
	p := CurrentPalette

	cfg.Document.Color = hexPtr(p.Foreground)
	cfg.Paragraph.Color = hexPtr(p.Foreground)

	cfg.Heading.Color = hexPtr(p.Primary)
	cfg.H1.Color = hexPtr(p.Foreground)
	cfg.H1.BackgroundColor = hexPtr(p.Surface)
	cfg.H2.Color = hexPtr(p.Primary)
	cfg.H3.Color = hexPtr(p.Primary)

	cfg.Link.Color = hexPtr(p.Secondary)
	cfg.LinkText.Color = hexPtr(p.Secondary)
	cfg.Code.Color = hexPtr(p.Secondary)

	cfg.Table.Color = hexPtr(p.Foreground)

	return cfg
}

// FormTheme returns a huh theme matching the active palette.
func FormTheme() *huh.Theme {
	t := huh.ThemeBase()
	p := CurrentPalette

	t.Focused.Title = t.Focused.Title.Foreground(p.Primary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(p.Muted)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(p.Error)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(p.Error)
	t.Focused.Base = t.Focused.Base.BorderForeground(p.Primary)
	t.Blurred = t.Focused
	t.Blurred.Base = t.Blurred.Base.BorderForeground(p.Muted)

	return t
}
