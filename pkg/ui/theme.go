package ui

import (
	"image/color"
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/influgraph/pkg/model"
	"github.com/vanderheijden86/influgraph/pkg/paint"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme holds the chrome styles of the explorer.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary lipgloss.AdaptiveColor
	Subtext lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor
	Accent  lipgloss.AdaptiveColor
	Danger  lipgloss.AdaptiveColor

	// CanvasBg is the colour dimmed nodes fade towards.
	CanvasBg color.NRGBA

	Header    lipgloss.Style
	HeaderDim lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Hint      lipgloss.Style
	Key       lipgloss.Style
	Alert     lipgloss.Style
	Prompt    lipgloss.Style
	Detail    lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,
		Primary:  ColorPrimary,
		Subtext:  ColorSubtext,
		Muted:    ColorMuted,
		Accent:   ColorAccent,
		Danger:   ColorDanger,
		CanvasBg: paint.Hex("#1e1f29"),
	}
	if !r.HasDarkBackground() {
		t.CanvasBg = paint.Hex("#ffffff")
	}

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)
	t.HeaderDim = r.NewStyle().Foreground(t.Subtext).PaddingLeft(SpaceXS)
	t.Status = r.NewStyle().Foreground(t.Subtext)
	t.Error = r.NewStyle().Foreground(t.Danger).Bold(true)
	t.Hint = r.NewStyle().Foreground(t.Muted)
	t.Key = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Prompt = r.NewStyle().Foreground(t.Accent).Bold(true)
	t.Detail = r.NewStyle().Foreground(t.Subtext).Italic(true)
	t.Alert = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Danger).
		Padding(1, SpaceSM)

	return t
}

// CategoryStyle returns a badge style coloured like the category's nodes.
func (t Theme) CategoryStyle(cat model.Category) lipgloss.Style {
	c := paint.DefaultStyle().Categories[cat]
	if c.A == 0 {
		return t.Renderer.NewStyle().Foreground(t.Subtext)
	}
	return t.Renderer.NewStyle().Foreground(ThemeFg(hexColor(c))).Bold(true)
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
