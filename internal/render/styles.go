// Package render formats formula values, sheets and diagnostics for the
// terminal.
package render

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Ayu theme colors with adaptive light/dark variants
var (
	ColorNumber = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
	ColorBoolean = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorError = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
)

var (
	NumberStyle  = lipgloss.NewStyle().Foreground(ColorNumber)
	BooleanStyle = lipgloss.NewStyle().Foreground(ColorBoolean)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorMuted)
)

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ShouldUseColor decides whether output to w gets ANSI colors. "always" and
// "never" are final; in auto mode NO_COLOR disables color, CLICOLOR_FORCE
// enables it, CLICOLOR=0 disables it, and otherwise color is used only when
// w is a terminal.
func ShouldUseColor(mode string, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if force := os.Getenv("CLICOLOR_FORCE"); force != "" && force != "0" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Setup sets the global color profile for output to w and reports whether
// color is on
func Setup(mode string, w io.Writer) bool {
	if !ShouldUseColor(mode, w) {
		lipgloss.SetColorProfile(termenv.Ascii)
		return false
	}
	profile := termenv.EnvColorProfile()
	if profile == termenv.Ascii {
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
	return true
}
