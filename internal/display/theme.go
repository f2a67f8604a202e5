package display

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette of terminal colors plus the Glamour style that
// renders closest to it.
type Theme struct {
	Name   string
	colors map[string]string
}

// GetColor returns the hex color assigned to key, or a neutral gray when the
// theme has no entry for it.
func (t Theme) GetColor(key string) string {
	if c, ok := t.colors[key]; ok {
		return c
	}
	return "#888888"
}

// GetGlamourStyleName returns the Glamour standard style name matching this
// theme.
func (t Theme) GetGlamourStyleName() string {
	switch t.Name {
	case "light":
		return "light"
	case "dark":
		return "dark"
	default:
		return Auto
	}
}

// LightTheme returns the built-in light color palette.
func LightTheme() Theme {
	return Theme{
		Name: "light",
		colors: map[string]string{
			"title":        "#1a1a1a",
			"subtitle":     "#4a4a4a",
			"primary":      "#d0d0d0",
			"foreground":   "#1a1a1a",
			"table_border": "#bbbbbb",
			"error":        "#b00020",
			"warning":      "#a15c00",
			"accent":       "#0066cc",
			"secondary":    "#6a4fbf",
		},
	}
}

// DarkTheme returns the built-in dark color palette.
func DarkTheme() Theme {
	return Theme{
		Name: "dark",
		colors: map[string]string{
			"title":        "#f5f5f5",
			"subtitle":     "#c7c7c7",
			"primary":      "#3a3a3a",
			"foreground":   "#f5f5f5",
			"table_border": "#5a5a5a",
			"error":        "#ff5d5d",
			"warning":      "#ffb454",
			"accent":       "#5fb4ff",
			"secondary":    "#b48cff",
		},
	}
}

// DetectTheme resolves a theme by name ("light", "dark", "none", "custom",
// or "" / "auto" to detect from the COLORFGBG environment variable, falling
// back to dark).
func DetectTheme(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	case None:
		t := DarkTheme()
		t.Name = "none"
		return t
	case Custom:
		t := DarkTheme()
		t.Name = "custom"
		return t
	default:
		if isLightBackground() {
			return LightTheme()
		}
		return DarkTheme()
	}
}

// ApplyTheme sets style's foreground to this theme's color for key.
func (t Theme) ApplyTheme(style lipgloss.Style, key string) lipgloss.Style {
	return style.Foreground(lipgloss.Color(t.GetColor(key)))
}

// getThemeByName resolves a theme by case-insensitive name, auto-detecting
// when name is empty or blank.
func getThemeByName(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	case "custom":
		t := DarkTheme()
		t.Name = "custom"
		return t
	case "none":
		t := DarkTheme()
		t.Name = "none"
		return t
	default:
		return autoDetectTheme()
	}
}

// autoDetectTheme guesses a dark-vs-light preference from terminal
// environment variables, independent of DetectTheme's COLORFGBG check.
func autoDetectTheme() Theme {
	term := strings.ToLower(os.Getenv("TERM"))
	termProgram := strings.ToLower(os.Getenv("TERM_PROGRAM"))
	colorTerm := strings.ToLower(os.Getenv("COLORTERM"))

	switch {
	case strings.Contains(term, "dark"),
		strings.Contains(termProgram, "dark"),
		strings.Contains(term, "256color"),
		colorTerm == "truecolor":
		return DarkTheme()
	default:
		return LightTheme()
	}
}

// isLightBackground makes a best-effort guess from COLORFGBG, the
// "foreground;background" hint some terminal emulators export. A background
// index of 15 (white) or above is treated as light.
func isLightBackground() bool {
	v := os.Getenv("COLORFGBG")
	if v == "" {
		return false
	}
	// COLORFGBG is "fg;bg" or "fg;default;bg"; the background is the last field.
	fields := strings.Split(v, ";")
	bg, err := strconv.Atoi(fields[len(fields)-1])
	return err == nil && bg >= 15
}
