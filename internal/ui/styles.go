// Package ui provides terminal styling for ripi CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ripi-dev/ripi/internal/types"
)

// Ayu theme color palette
// Dark: https://terminalcolors.com/themes/ayu/dark/
// Light: https://terminalcolors.com/themes/ayu/light/
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300", // ayu light bright green
		Dark:  "#c2d94c", // ayu dark bright green
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49", // ayu light bright yellow
		Dark:  "#ffb454", // ayu dark bright yellow
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171", // ayu light bright red
		Dark:  "#f07178", // ayu dark bright red
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99", // ayu light muted
		Dark:  "#6c7680", // ayu dark muted
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6", // ayu light bright blue
		Dark:  "#59c2ff", // ayu dark bright blue
	}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
)

// CategoryStyle for section headers - bold with accent color
var CategoryStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

// Status icons
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconSkip = "-"
)

// Tree characters for stage listings
const (
	TreeChild  = "⎿ "
	TreeLast   = "└─ "
	TreeIndent = "  "
)

const SeparatorLight = "──────────────────────────────────────────"

// RenderWarn renders text with warning (yellow) styling
func RenderWarn(s string) string {
	return WarnStyle.Render(s)
}

// RenderMuted renders text with muted (gray) styling
func RenderMuted(s string) string {
	return MutedStyle.Render(s)
}

// RenderAccent renders text with accent (blue) styling
func RenderAccent(s string) string {
	return AccentStyle.Render(s)
}

// RenderCategory renders a category header in uppercase with accent color
func RenderCategory(s string) string {
	return CategoryStyle.Render(strings.ToUpper(s))
}

// RenderSeparator renders the light separator line in muted color
func RenderSeparator() string {
	return MutedStyle.Render(SeparatorLight)
}

// RenderWarnIcon renders the warning icon with styling
func RenderWarnIcon() string {
	return WarnStyle.Render(IconWarn)
}

// RenderStage renders a stage header with its issue count.
func RenderStage(st types.Stage, count int) string {
	return RenderCategory(string(st)) + " " + RenderMuted("("+strconv.Itoa(count)+")")
}

// RenderStatus renders a status badge. A nil status renders as nothing, a
// status that could not be read as a warning.
func RenderStatus(status *types.Status, err error) string {
	switch {
	case err != nil:
		return RenderWarnIcon() + " " + RenderWarn("status?")
	case status == nil:
		return ""
	case *status == types.StatusDoing:
		return RenderAccent("[" + status.String() + "]")
	default:
		return RenderMuted("[" + status.String() + "]")
	}
}
