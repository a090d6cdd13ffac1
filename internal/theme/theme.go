package theme

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for the application
type Theme struct {
	Key  string
	Name string

	// Text colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
	Success   lipgloss.Color

	// UI element colors
	Border       lipgloss.Color
	BorderActive lipgloss.Color
	Tile         lipgloss.Color
	TileSelected lipgloss.Color
	Highlight    lipgloss.Color
}

// Available themes
var (
	Verde = Theme{
		Key:          "verde",
		Name:         "Verde",
		Primary:      lipgloss.Color("#e8f5e9"),
		Secondary:    lipgloss.Color("#a5d6a7"),
		Accent:       lipgloss.Color("#66bb6a"),
		Muted:        lipgloss.Color("#6b8f71"),
		Error:        lipgloss.Color("#ef5350"),
		Success:      lipgloss.Color("#81c784"),
		Border:       lipgloss.Color("#2e4d34"),
		BorderActive: lipgloss.Color("#4caf50"),
		Tile:         lipgloss.Color("#1b3320"),
		TileSelected: lipgloss.Color("#388e3c"),
		Highlight:    lipgloss.Color("#2e7d32"),
	}

	CatppuccinMocha = Theme{
		Key:          "catppuccin-mocha",
		Name:         "Catppuccin Mocha",
		Primary:      lipgloss.Color("#cdd6f4"),
		Secondary:    lipgloss.Color("#a6adc8"),
		Accent:       lipgloss.Color("#a6e3a1"),
		Muted:        lipgloss.Color("#6c7086"),
		Error:        lipgloss.Color("#f38ba8"),
		Success:      lipgloss.Color("#a6e3a1"),
		Border:       lipgloss.Color("#45475a"),
		BorderActive: lipgloss.Color("#89b4fa"),
		Tile:         lipgloss.Color("#313244"),
		TileSelected: lipgloss.Color("#40a02b"),
		Highlight:    lipgloss.Color("#45475a"),
	}

	Dracula = Theme{
		Key:          "dracula",
		Name:         "Dracula",
		Primary:      lipgloss.Color("#f8f8f2"),
		Secondary:    lipgloss.Color("#6272a4"),
		Accent:       lipgloss.Color("#50fa7b"),
		Muted:        lipgloss.Color("#6272a4"),
		Error:        lipgloss.Color("#ff5555"),
		Success:      lipgloss.Color("#50fa7b"),
		Border:       lipgloss.Color("#44475a"),
		BorderActive: lipgloss.Color("#bd93f9"),
		Tile:         lipgloss.Color("#282a36"),
		TileSelected: lipgloss.Color("#44475a"),
		Highlight:    lipgloss.Color("#44475a"),
	}

	SolarizedLight = Theme{
		Key:          "solarized-light",
		Name:         "Solarized Light",
		Primary:      lipgloss.Color("#586e75"),
		Secondary:    lipgloss.Color("#93a1a1"),
		Accent:       lipgloss.Color("#859900"),
		Muted:        lipgloss.Color("#93a1a1"),
		Error:        lipgloss.Color("#dc322f"),
		Success:      lipgloss.Color("#859900"),
		Border:       lipgloss.Color("#eee8d5"),
		BorderActive: lipgloss.Color("#268bd2"),
		Tile:         lipgloss.Color("#eee8d5"),
		TileSelected: lipgloss.Color("#b5c97a"),
		Highlight:    lipgloss.Color("#eee8d5"),
	}
)

var byKey = map[string]Theme{
	Verde.Key:           Verde,
	CatppuccinMocha.Key: CatppuccinMocha,
	Dracula.Key:         Dracula,
	SolarizedLight.Key:  SolarizedLight,
}

// AllThemes returns a list of all available themes, default first.
func AllThemes() []Theme {
	themes := make([]Theme, 0, len(byKey))
	for _, t := range byKey {
		if t.Key != Verde.Key {
			themes = append(themes, t)
		}
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i].Key < themes[j].Key })
	return append([]Theme{Verde}, themes...)
}

// GetTheme returns a theme by key, defaulting to Verde if not found
func GetTheme(key string) Theme {
	if theme, ok := byKey[key]; ok {
		return theme
	}
	return Verde
}

// Exists reports whether key names a known theme.
func Exists(key string) bool {
	_, ok := byKey[key]
	return ok
}

// Next returns the theme after t in AllThemes order, wrapping around.
func Next(t Theme) Theme {
	all := AllThemes()
	for i, candidate := range all {
		if candidate.Key == t.Key {
			return all[(i+1)%len(all)]
		}
	}
	return Verde
}
