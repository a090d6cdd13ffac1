package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// window returns the [start, end) slice of n items that fits height rows
// and keeps cursor visible.
func window(cursor, n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > n {
		end = n
		start = end - height
	}
	return start, end
}

// renderList draws labels one per row. highlight marks rows that should use
// the selected style when they are not under the cursor.
func (m Model) renderList(labels []string, cursor, height, width int, active bool, highlight func(int) bool) string {
	start, end := window(cursor, len(labels), height)

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		label := ansi.Truncate(labels[i], width-2, "…")
		switch {
		case active && i == cursor:
			rows = append(rows, m.styles.ItemCursor.Render("> "+label))
		case highlight != nil && highlight(i):
			rows = append(rows, m.styles.ItemSelected.Render("  "+label))
		default:
			rows = append(rows, m.styles.Item.Render("  "+label))
		}
	}
	return strings.Join(rows, "\n")
}
