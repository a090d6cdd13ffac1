package theme

import "github.com/charmbracelet/lipgloss"

// Styles is the set of lipgloss styles the UI renders with, derived from a Theme.
type Styles struct {
	Header       lipgloss.Style
	Title        lipgloss.Style
	Pane         lipgloss.Style
	PaneActive   lipgloss.Style
	Item         lipgloss.Style
	ItemCursor   lipgloss.Style
	ItemSelected lipgloss.Style
	Muted        lipgloss.Style
	Error        lipgloss.Style
	Loading      lipgloss.Style
	Button       lipgloss.Style
	ButtonActive lipgloss.Style
	Code         lipgloss.Style

	Modal      lipgloss.Style
	ModalTitle lipgloss.Style
	VerseBlock lipgloss.Style
}

func (t Theme) Styles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Accent).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		PaneActive: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderActive).
			Padding(0, 1),
		Item:       lipgloss.NewStyle().Foreground(t.Primary),
		ItemCursor: lipgloss.NewStyle().Foreground(t.Primary).Background(t.Highlight).Bold(true),
		ItemSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.TileSelected),
		Muted:   lipgloss.NewStyle().Foreground(t.Muted),
		Error:   lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		Loading: lipgloss.NewStyle().Foreground(t.Success),
		Button: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Tile).
			Padding(0, 2),
		ButtonActive: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.TileSelected).
			Bold(true).
			Padding(0, 2),
		Code: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderActive).
			Padding(1, 2),
		ModalTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Accent).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		VerseBlock: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Tile).
			Padding(0, 1).
			MarginBottom(1),
	}
}
