package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"biblia-tui/internal/flow"
	"biblia-tui/internal/theme"
)

const (
	bookPaneWidth = 30
	minPaneHeight = 5
)

func (m Model) updateBrowser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.flow.ModalOpen() {
		return m.updateModal(msg)
	}
	if m.search.Focused() {
		return m.updateSearch(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Search):
		m.focus = paneBooks
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Pane):
		if m.focus == paneBooks && m.flow.State() != flow.StateBrowsing {
			m.focus = paneDetail
		} else {
			m.focus = paneBooks
		}

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Back):
		if m.flow.Back() {
			m.detailCursor = 0
			if m.flow.State() == flow.StateBrowsing {
				m.focus = paneBooks
			}
		}

	case key.Matches(msg, m.keys.Select):
		return m, m.selectAtCursor()

	case key.Matches(msg, m.keys.Toggle):
		m.toggleAtCursor()

	case key.Matches(msg, m.keys.Fetch):
		if fetch, ok := m.flow.FetchTexts(); ok {
			return m, m.runFetch(fetch)
		}

	case key.Matches(msg, m.keys.Retry):
		if fetch, ok := m.flow.Retry(); ok {
			return m, m.runFetch(fetch)
		}

	case key.Matches(msg, m.keys.Theme):
		return m, m.cycleTheme()

	case key.Matches(msg, m.keys.SignOut):
		return m, signOut(m.gate)
	}

	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "tab", "down":
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.flow.Query() {
		m.flow.SetQuery(m.search.Value())
		m.bookCursor = 0
	}
	return m, cmd
}

func (m *Model) moveCursor(delta int) {
	if m.focus == paneBooks {
		m.bookCursor = clamp(m.bookCursor+delta, len(m.flow.Books()))
		return
	}
	m.detailCursor = clamp(m.detailCursor+delta, m.detailLen())
}

func (m *Model) detailLen() int {
	switch m.flow.State() {
	case flow.StateChaptersShown:
		return len(m.flow.Chapters())
	case flow.StateVersesShown:
		return len(m.flow.Verses())
	default:
		return 0
	}
}

func (m *Model) selectAtCursor() tea.Cmd {
	if m.focus == paneBooks {
		books := m.flow.Books()
		if len(books) == 0 {
			return nil
		}
		fetch, ok := m.flow.SelectBook(books[clamp(m.bookCursor, len(books))])
		if !ok {
			return nil
		}
		m.focus = paneDetail
		m.detailCursor = 0
		return m.runFetch(fetch)
	}

	switch m.flow.State() {
	case flow.StateChaptersShown:
		chapters := m.flow.Chapters()
		if len(chapters) == 0 {
			return nil
		}
		fetch, ok := m.flow.SelectChapter(chapters[clamp(m.detailCursor, len(chapters))])
		if !ok {
			return nil
		}
		m.detailCursor = 0
		return m.runFetch(fetch)
	case flow.StateVersesShown:
		m.toggleAtCursor()
	}
	return nil
}

func (m *Model) toggleAtCursor() {
	if m.focus != paneDetail || m.flow.State() != flow.StateVersesShown {
		return
	}
	verses := m.flow.Verses()
	if len(verses) == 0 {
		return
	}
	m.flow.ToggleVerse(verses[clamp(m.detailCursor, len(verses))])
}

func (m *Model) cycleTheme() tea.Cmd {
	m.setTheme(theme.Next(m.theme))
	m.prefs.Theme = m.theme.Key
	return saveSettings(m.store, m.prefs)
}

func (m Model) viewBrowser() string {
	header := m.headerView()
	footer := m.help.View(m.keys)

	var banner string
	if f := m.flow.Failure(); f != nil {
		banner = m.styles.Error.Render(fmt.Sprintf("Error al cargar %s: %v", opLabel(f.Op), f.Err)) +
			m.styles.Muted.Render("  (r para reintentar)")
	} else if m.err != nil {
		banner = m.styles.Error.Render(m.err.Error())
	}

	used := lipgloss.Height(header) + lipgloss.Height(footer)
	if banner != "" {
		used += lipgloss.Height(banner)
	}
	// pane borders take two rows
	height := m.height - used - 2
	if height < minPaneHeight {
		height = minPaneHeight
	}

	leftWidth := bookPaneWidth
	if m.width/3 < leftWidth {
		leftWidth = max(m.width/3, 16)
	}
	rightWidth := m.width - leftWidth - 4*2
	if rightWidth < 20 {
		rightWidth = 20
	}

	left := m.paneStyle(paneBooks).Width(leftWidth).Height(height).Render(m.booksView(leftWidth, height))
	right := m.paneStyle(paneDetail).Width(rightWidth).Height(height).Render(m.detailView(rightWidth, height))
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	parts := []string{header}
	if banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, body, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) paneStyle(p pane) lipgloss.Style {
	if m.focus == p {
		return m.styles.PaneActive
	}
	return m.styles.Pane
}

func (m Model) booksView(width, height int) string {
	var b strings.Builder
	b.WriteString(m.search.View())
	b.WriteString("\n\n")
	height -= 2

	books := m.flow.Books()
	switch {
	case len(m.flow.AllBooks()) == 0 && m.flow.Pending(flow.OpBooks):
		b.WriteString(m.spinner.View() + m.styles.Muted.Render(" Cargando..."))
		return b.String()
	case len(books) == 0 && m.flow.Query() != "":
		b.WriteString(m.styles.Muted.Render("Sin resultados"))
		return b.String()
	}

	current, hasBook := m.flow.Book()
	labels := make([]string, len(books))
	for i, book := range books {
		labels[i] = book.Name
	}
	b.WriteString(m.renderList(labels, m.bookCursor, height, width, m.focus == paneBooks, func(i int) bool {
		return hasBook && books[i].ID == current.ID
	}))
	return b.String()
}

func (m Model) detailView(width, height int) string {
	switch m.flow.State() {
	case flow.StateChaptersShown:
		return m.chaptersView(width, height)
	case flow.StateVersesShown:
		return m.versesView(width, height)
	default:
		return m.styles.Muted.Render("Selecciona un libro para empezar")
	}
}

func (m Model) chaptersView(width, height int) string {
	book, _ := m.flow.Book()

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(book.Name))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("← Volver a los libros"))
	b.WriteString("\n\n")
	height -= 3

	if m.flow.Pending(flow.OpChapters) {
		b.WriteString(m.spinner.View() + m.styles.Muted.Render(" Cargando..."))
		return b.String()
	}

	chapters := m.flow.Chapters()
	labels := make([]string, len(chapters))
	for i, ch := range chapters {
		labels[i] = chapterLabel(ch.Number, ch.Reference)
	}
	b.WriteString(m.renderList(labels, m.detailCursor, height, width, m.focus == paneDetail, nil))
	return b.String()
}

func (m Model) versesView(width, height int) string {
	book, _ := m.flow.Book()
	chapter, _ := m.flow.Chapter()

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(fmt.Sprintf("%s %s", book.Name, chapter.Number)))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("← Volver al capítulo"))
	b.WriteString("\n\n")
	height -= 5

	verses := m.flow.Verses()
	if m.flow.Pending(flow.OpVerses) && len(verses) == 0 {
		b.WriteString(m.spinner.View() + m.styles.Muted.Render(" Cargando..."))
		return b.String()
	}

	labels := make([]string, len(verses))
	for i, v := range verses {
		mark := "[ ]"
		if m.flow.IsSelected(v.ID) {
			mark = "[x]"
		}
		labels[i] = mark + " " + v.Reference
	}
	b.WriteString(m.renderList(labels, m.detailCursor, height, width, m.focus == paneDetail, func(i int) bool {
		return m.flow.IsSelected(verses[i].ID)
	}))
	b.WriteString("\n\n")

	button := m.styles.Button
	if len(m.flow.Selection()) > 0 {
		button = m.styles.ButtonActive
	}
	label := "Buscar versículo"
	if m.flow.Pending(flow.OpTexts) {
		label = m.spinner.View() + " Cargando..."
	}
	b.WriteString(button.Render(label))
	return b.String()
}

func chapterLabel(number, reference string) string {
	if number != "" {
		return "Capítulo " + number
	}
	return reference
}

func opLabel(op flow.Op) string {
	switch op {
	case flow.OpBooks:
		return "los libros"
	case flow.OpChapters:
		return "los capítulos"
	case flow.OpVerses:
		return "los versículos"
	case flow.OpTexts:
		return "el texto"
	default:
		return op.String()
	}
}
