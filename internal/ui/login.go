package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"biblia-tui/internal/auth"
)

type loginState struct {
	providers []auth.Provider
	cursor    int

	attempt int
	pending bool
	auth    *auth.Authorization
	cancel  context.CancelFunc
	err     error
}

func newLoginState(gate *auth.Gate, last string) loginState {
	s := loginState{}
	if gate == nil {
		return s
	}
	s.providers = gate.Providers()
	for i, p := range s.providers {
		if p.ID() == last {
			s.cursor = i
			break
		}
	}
	return s
}

// cancelPending aborts a sign-in in progress. Results of the aborted attempt
// are ignored because the attempt counter moves on.
func (s *loginState) cancelPending() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.pending = false
	s.auth = nil
	s.attempt++
}

func (s *loginState) reset() {
	s.cancelPending()
	s.err = nil
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case signInStartedMsg:
		if msg.attempt != m.login.attempt || !m.login.pending {
			return m, nil
		}
		if msg.err != nil {
			m.login.cancelPending()
			m.login.err = msg.err
			return m, nil
		}
		m.login.auth = msg.auth
		ctx, cancel := context.WithCancel(m.ctx)
		if m.login.cancel != nil {
			m.login.cancel()
		}
		m.login.cancel = cancel
		return m, finishSignIn(ctx, m.gate, m.login.attempt, msg.auth)

	case signInFinishedMsg:
		if msg.attempt != m.login.attempt {
			return m, nil
		}
		if msg.err != nil {
			m.login.cancelPending()
			if !errors.Is(msg.err, context.Canceled) {
				m.login.err = msg.err
			}
			return m, nil
		}
		// The gate publishes the new session; routing happens on sessionMsg.
		m.log.Debug().Str("provider", msg.user.Provider).Msg("sign-in finished")
		return m, nil

	case tea.KeyMsg:
		if m.login.pending {
			if key.Matches(msg, m.keys.Back) {
				m.login.cancelPending()
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.login.cursor > 0 {
				m.login.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.login.cursor < len(m.login.providers)-1 {
				m.login.cursor++
			}
		case key.Matches(msg, m.keys.Theme):
			return m, m.cycleTheme()
		case key.Matches(msg, m.keys.Select):
			if len(m.login.providers) == 0 {
				return m, nil
			}
			p := m.login.providers[m.login.cursor]
			m.login.cancelPending()
			m.login.err = nil
			m.login.pending = true
			ctx, cancel := context.WithCancel(m.ctx)
			m.login.cancel = cancel
			return m, beginSignIn(ctx, m.gate, m.login.attempt, p.ID())
		}
	}
	return m, nil
}

func (m Model) viewLogin() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Biblia Reina Valera"))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("Inicia sesión para continuar"))
	b.WriteString("\n\n")

	switch {
	case len(m.login.providers) == 0:
		b.WriteString(m.styles.Error.Render("No hay métodos de inicio de sesión configurados."))
		b.WriteString("\n")

	case m.login.pending && m.login.auth != nil && m.login.auth.NeedsUserAction():
		a := m.login.auth
		b.WriteString("Abre ")
		b.WriteString(m.styles.Code.Render(a.VerificationURI))
		b.WriteString("\ne introduce el código:\n\n  ")
		b.WriteString(m.styles.Code.Render(a.UserCode))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View())
		b.WriteString(m.styles.Muted.Render(" Esperando autorización... (esc para cancelar)"))
		b.WriteString("\n")

	case m.login.pending:
		b.WriteString(m.spinner.View())
		b.WriteString(m.styles.Muted.Render(" Cargando..."))
		b.WriteString("\n")

	default:
		for i, p := range m.login.providers {
			label := fmt.Sprintf("Continuar con %s", p.Name())
			if i == m.login.cursor {
				b.WriteString(m.styles.ButtonActive.Render(label))
			} else {
				b.WriteString(m.styles.Button.Render(label))
			}
			b.WriteString("\n\n")
		}
	}

	if m.login.err != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(m.login.err.Error()))
		b.WriteString("\n")
	}

	box := m.styles.Modal.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
