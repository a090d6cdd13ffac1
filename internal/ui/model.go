package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"biblia-tui/internal/api"
	"biblia-tui/internal/auth"
	"biblia-tui/internal/flow"
	"biblia-tui/internal/logging"
	"biblia-tui/internal/settings"
	"biblia-tui/internal/theme"
)

type route int

const (
	routeLogin route = iota
	routeBrowser
)

type pane int

const (
	paneBooks pane = iota
	paneDetail
)

// Options are the collaborators the program is built from.
type Options struct {
	Context  context.Context
	Content  api.Content
	Gate     *auth.Gate
	Sessions *auth.Subscription // acquired and released by the caller
	Settings *settings.Store
	Prefs    settings.Settings
	Theme    theme.Theme
}

type Model struct {
	ctx      context.Context
	gate     *auth.Gate
	sessions *auth.Subscription
	store    *settings.Store
	prefs    settings.Settings
	log      zerolog.Logger

	theme   theme.Theme
	styles  theme.Styles
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	route route
	user  *auth.User
	login loginState

	flow         *flow.Flow
	runFetch     fetchRunner
	search       textinput.Model
	focus        pane
	bookCursor   int
	detailCursor int
	modal        viewport.Model

	width  int
	height int
	ready  bool
	err    error
}

func NewModel(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	ti := textinput.New()
	ti.Placeholder = "Buscar libro..."
	ti.Prompt = "/ "
	ti.CharLimit = 40
	ti.Width = 24

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		gate:     opts.Gate,
		sessions: opts.Sessions,
		store:    opts.Settings,
		prefs:    opts.Prefs,
		log:      logging.Component("ui"),
		keys:     defaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		route:    routeLogin,
		login:    newLoginState(opts.Gate, opts.Prefs.LastProvider),
		flow:     flow.New(ctx, opts.Content),
		runFetch: runFetch,
		search:   ti,
	}
	m.setTheme(opts.Theme)
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.sessions != nil {
		cmds = append(cmds, waitForSession(m.sessions))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.resizeModal()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionMsg:
		if !msg.ok {
			return m, nil
		}
		cmd := m.applySession(msg.session)
		if m.sessions == nil {
			return m, cmd
		}
		return m, tea.Batch(cmd, waitForSession(m.sessions))

	case outcomeMsg:
		return m, m.applyOutcome(msg.outcome)

	case signInStartedMsg, signInFinishedMsg:
		return m.updateLogin(msg)

	case signedOutMsg:
		if msg.err != nil && !errors.Is(msg.err, auth.ErrNotSignedIn) {
			m.err = msg.err
		}
		return m, nil

	case settingsSavedMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("failed to save settings")
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.login.cancelPending()
			return m, tea.Quit
		}
		if m.route == routeLogin {
			return m.updateLogin(msg)
		}
		return m.updateBrowser(msg)
	}

	return m, nil
}

// applySession routes to the login screen or the browser. Entering the
// browser mounts it: the flow is reset and the book list fetched.
func (m *Model) applySession(s auth.Session) tea.Cmd {
	if !s.SignedIn() {
		m.user = nil
		m.route = routeLogin
		m.flow.Reset()
		m.search.SetValue("")
		m.search.Blur()
		m.login.reset()
		return nil
	}

	m.user = s.User
	if m.route == routeBrowser {
		return nil
	}

	m.route = routeBrowser
	m.login.reset()
	m.err = nil
	m.flow.Reset()
	m.focus = paneBooks
	m.bookCursor = 0
	m.detailCursor = 0

	var cmds []tea.Cmd
	if m.prefs.LastProvider != s.User.Provider {
		m.prefs.LastProvider = s.User.Provider
		cmds = append(cmds, saveSettings(m.store, m.prefs))
	}
	cmds = append(cmds, m.runFetch(m.flow.LoadBooks()))
	return tea.Batch(cmds...)
}

func (m *Model) applyOutcome(o flow.Outcome) tea.Cmd {
	wasOpen := m.flow.ModalOpen()
	if !m.flow.Apply(o) {
		return nil
	}

	switch o.(type) {
	case flow.BooksLoaded:
		m.bookCursor = clamp(m.bookCursor, len(m.flow.Books()))
	case flow.ChaptersLoaded, flow.VersesLoaded:
		m.detailCursor = 0
	}

	if !wasOpen && m.flow.ModalOpen() {
		m.openModal()
	}
	return nil
}

func (m *Model) setTheme(t theme.Theme) {
	m.theme = t
	m.styles = t.Styles()
	m.spinner.Style = m.styles.Loading
	m.search.PromptStyle = m.styles.Muted
	m.search.TextStyle = m.styles.Item
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	if m.route == routeLogin {
		return m.viewLogin()
	}

	if m.flow.ModalOpen() {
		return m.viewModal()
	}
	return m.viewBrowser()
}

func (m Model) headerView() string {
	title := m.styles.Title.Render("Biblia Reina Valera")
	right := ""
	if m.user != nil {
		right = m.styles.Muted.Render(m.user.DisplayName())
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, title, lipgloss.NewStyle().Width(gap).Render(""), right)
	return m.styles.Header.Width(m.width).Render(line)
}

func clamp(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}
