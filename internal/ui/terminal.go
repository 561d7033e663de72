package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

func init() {
	if !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	} else if os.Getenv("CLICOLOR_FORCE") != "" && !IsTerminal() {
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor decides whether output is colored, following the NO_COLOR
// and CLICOLOR conventions:
//
//   - NO_COLOR set (any value) disables color
//   - CLICOLOR=0 disables color
//   - CLICOLOR_FORCE set enables color even when stdout is not a terminal
//   - otherwise color is used only on a terminal
func ShouldUseColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if v := os.Getenv("CLICOLOR_FORCE"); v != "" && v != "0" {
		return true
	}
	return IsTerminal()
}
