package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines a colour scheme for terminal output.
type Theme struct {
	// Name is the identifier of the theme.
	Name string
	// Accent highlights headers and strategy names.
	Accent lipgloss.TerminalColor
	// Success marks completed tasks.
	Success lipgloss.TerminalColor
	// Error marks failed tasks.
	Error lipgloss.TerminalColor
	// Warning is used for timings and caveats.
	Warning lipgloss.TerminalColor
	// Dim is used for secondary information.
	Dim lipgloss.TerminalColor
}

var (
	// DarkTheme is optimized for dark terminal backgrounds.
	DarkTheme = Theme{
		Name:    "dark",
		Accent:  lipgloss.Color("39"),
		Success: lipgloss.Color("82"),
		Error:   lipgloss.Color("196"),
		Warning: lipgloss.Color("220"),
		Dim:     lipgloss.Color("245"),
	}

	// LightTheme is optimized for light terminal backgrounds.
	LightTheme = Theme{
		Name:    "light",
		Accent:  lipgloss.Color("27"),
		Success: lipgloss.Color("28"),
		Error:   lipgloss.Color("124"),
		Warning: lipgloss.Color("130"),
		Dim:     lipgloss.Color("240"),
	}

	// NoColorTheme disables all colour output.
	// Used when NO_COLOR is set or --no-color flag is provided.
	NoColorTheme = Theme{
		Name:    "none",
		Accent:  lipgloss.NoColor{},
		Success: lipgloss.NoColor{},
		Error:   lipgloss.NoColor{},
		Warning: lipgloss.NoColor{},
		Dim:     lipgloss.NoColor{},
	}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// GetCurrentTheme returns the currently active theme in a thread-safe manner.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the currently active theme in a thread-safe manner.
// This is primarily used for testing purposes to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme changes the active theme by name: "dark", "light" or "none".
// Unknown names default to dark theme.
func SetTheme(name string) {
	switch name {
	case "light":
		SetCurrentTheme(LightTheme)
	case "none":
		SetCurrentTheme(NoColorTheme)
	default:
		SetCurrentTheme(DarkTheme)
	}
}

// InitTheme initializes the theme based on the noColor flag and environment.
// It respects the NO_COLOR environment variable (https://no-color.org/).
func InitTheme(noColor bool) {
	if noColor {
		SetCurrentTheme(NoColorTheme)
		return
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		SetCurrentTheme(NoColorTheme)
		return
	}
	SetCurrentTheme(DarkTheme)
}

// Colors reports whether the active theme emits colour codes.
func Colors() bool { return GetCurrentTheme().Name != "none" }

func style(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// Header renders a section title.
func Header(s string) string {
	return style(GetCurrentTheme().Accent).Bold(Colors()).Render(s)
}

// Accent renders s in the accent colour.
func Accent(s string) string { return style(GetCurrentTheme().Accent).Render(s) }

// Success renders s in the success colour.
func Success(s string) string { return style(GetCurrentTheme().Success).Render(s) }

// Failure renders s in the error colour.
func Failure(s string) string { return style(GetCurrentTheme().Error).Render(s) }

// Warning renders s in the warning colour.
func Warning(s string) string { return style(GetCurrentTheme().Warning).Render(s) }

// Dim renders secondary text.
func Dim(s string) string { return style(GetCurrentTheme().Dim).Render(s) }
