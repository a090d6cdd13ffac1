package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const (
	modalMaxWidth = 80
	modalMargin   = 4
)

func (m Model) modalSize() (int, int) {
	w := min(m.width-modalMargin*2, modalMaxWidth)
	h := m.height - modalMargin*2
	// border, padding and title
	return max(w-6, 10), max(h-7, 3)
}

func (m *Model) openModal() {
	w, h := m.modalSize()
	m.modal = viewport.New(w, h)
	m.modal.SetContent(m.modalContent(w))
}

func (m *Model) resizeModal() {
	if !m.flow.ModalOpen() {
		return
	}
	w, h := m.modalSize()
	m.modal.Width = w
	m.modal.Height = h
	m.modal.SetContent(m.modalContent(w))
}

func (m Model) modalContent(width int) string {
	texts := m.flow.Texts()
	if len(texts) == 0 {
		return m.styles.Muted.Render("No hay versículos seleccionados.")
	}

	selection := m.flow.Selection()
	blocks := make([]string, 0, len(texts))
	for i, text := range texts {
		var b strings.Builder
		if i < len(selection) {
			b.WriteString(m.styles.Code.Render(selection[i].Reference))
			b.WriteString("\n")
		}
		b.WriteString(wordwrap.String(text, width-2))
		blocks = append(blocks, m.styles.VerseBlock.Width(width).Render(b.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func (m Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.flow.CloseModal()
		return m, nil
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.modal, cmd = m.modal.Update(msg)
	return m, cmd
}

func (m Model) viewModal() string {
	book, _ := m.flow.Book()
	title := m.styles.ModalTitle.Render(book.Name)

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.modal.View(),
		m.help.View(modalHelp{keys: m.keys}),
	)
	box := m.styles.Modal.Render(body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
