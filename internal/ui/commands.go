package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"biblia-tui/internal/auth"
	"biblia-tui/internal/flow"
	"biblia-tui/internal/settings"
)

type sessionMsg struct {
	session auth.Session
	ok      bool // false once the subscription is closed
}

type outcomeMsg struct{ outcome flow.Outcome }

type signInStartedMsg struct {
	attempt int
	auth    *auth.Authorization
	err     error
}

type signInFinishedMsg struct {
	attempt int
	user    *auth.User
	err     error
}

type signedOutMsg struct{ err error }

type settingsSavedMsg struct{ err error }

// fetchRunner turns a flow fetch into a command. Tests swap it for a
// recorder so fetches can be resolved synchronously.
type fetchRunner func(flow.Fetch) tea.Cmd

func runFetch(fetch flow.Fetch) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg{fetch()}
	}
}

func waitForSession(sub *auth.Subscription) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-sub.C()
		return sessionMsg{session: s, ok: ok}
	}
}

func beginSignIn(ctx context.Context, gate *auth.Gate, attempt int, providerID string) tea.Cmd {
	return func() tea.Msg {
		a, err := gate.Begin(ctx, providerID)
		return signInStartedMsg{attempt: attempt, auth: a, err: err}
	}
}

func finishSignIn(ctx context.Context, gate *auth.Gate, attempt int, a *auth.Authorization) tea.Cmd {
	return func() tea.Msg {
		user, err := gate.Finish(ctx, a)
		return signInFinishedMsg{attempt: attempt, user: user, err: err}
	}
}

func signOut(gate *auth.Gate) tea.Cmd {
	return func() tea.Msg {
		return signedOutMsg{err: gate.SignOut()}
	}
}

func saveSettings(store *settings.Store, s settings.Settings) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return settingsSavedMsg{err: store.Save(s)}
	}
}
