package render

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme is the palette the chat interface draws with
type TUITheme struct {
	Name        string
	Description string

	Border    lipgloss.Color
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

// DefaultTUITheme is used when the config names none or an unknown one
const DefaultTUITheme = "cleansight"

var tuiThemes = []TUITheme{
	{
		Name:        DefaultTUITheme,
		Description: "Forest greens with a warm accent",
		Border:      "#3d5247",
		Primary:     "#7ccf8f",
		Secondary:   "#a8d672",
		Accent:      "#e6b566",
		Warning:     "#f2c94c",
		Error:       "#eb6f6f",
		Text:        "#dce8df",
		TextDim:     "#7f9688",
		TextMute:    "#3d5247",
	},
	{
		Name:        "sprout",
		Description: "Pale greens for light terminals",
		Border:      "#a9c4b0",
		Primary:     "#2f8f4e",
		Secondary:   "#5f9e2f",
		Accent:      "#b7791f",
		Warning:     "#b7791f",
		Error:       "#c53030",
		Text:        "#1f2d24",
		TextDim:     "#5b7263",
		TextMute:    "#a9c4b0",
	},
	{
		Name:        "nord",
		Description: "Arctic blues",
		Border:      "#4c566a",
		Primary:     "#88c0d0",
		Secondary:   "#a3be8c",
		Accent:      "#b48ead",
		Warning:     "#ebcb8b",
		Error:       "#bf616a",
		Text:        "#eceff4",
		TextDim:     "#7b88a1",
		TextMute:    "#4c566a",
	},
	{
		Name:        "dracula",
		Description: "High contrast dark",
		Border:      "#6272a4",
		Primary:     "#8be9fd",
		Secondary:   "#50fa7b",
		Accent:      "#ff79c6",
		Warning:     "#f1fa8c",
		Error:       "#ff5555",
		Text:        "#f8f8f2",
		TextDim:     "#6272a4",
		TextMute:    "#44475a",
	},
}

var (
	themeMu      sync.RWMutex
	currentTheme = tuiThemes[0]
)

// GetTUITheme returns the active palette
func GetTUITheme() TUITheme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// SetTUITheme activates the palette called name. It reports false and leaves
// the active palette alone when no such palette exists.
func SetTUITheme(name string) bool {
	theme, ok := GetTUIThemeByName(name)
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTheme = theme
	themeMu.Unlock()
	return true
}

func GetTUIThemeByName(name string) (TUITheme, bool) {
	for _, theme := range tuiThemes {
		if theme.Name == name {
			return theme, true
		}
	}
	return TUITheme{}, false
}

// TUIThemeNames lists the palettes in display order
func TUIThemeNames() []string {
	names := make([]string, len(tuiThemes))
	for i, t := range tuiThemes {
		names[i] = t.Name
	}
	return names
}
