// Package auth implements the identity gate: a single current-user value,
// populated by external sign-in providers and observed through scoped
// subscriptions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"biblia-tui/internal/logging"
)

var (
	ErrUnknownProvider = errors.New("unknown sign-in provider")
	ErrNotSignedIn     = errors.New("not signed in")
)

// User is the signed-in identity.
type User struct {
	ID       string
	Name     string
	Email    string
	Provider string
}

// DisplayName returns the best human-readable label for the user.
func (u User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

// Authorization is a sign-in in progress. For device-flow providers the user
// must visit VerificationURI and enter UserCode before Complete returns.
type Authorization struct {
	Provider        string
	VerificationURI string
	UserCode        string
	Expiry          time.Time

	state any // provider specific
}

// NeedsUserAction reports whether the user has to act outside the program.
func (a *Authorization) NeedsUserAction() bool {
	return a.UserCode != ""
}

type Provider interface {
	ID() string
	Name() string
	// Authorize starts a sign-in.
	Authorize(ctx context.Context) (*Authorization, error)
	// Complete blocks until the sign-in started by Authorize finishes.
	Complete(ctx context.Context, a *Authorization) (*User, error)
}

// Session is a snapshot of the gate; a nil User means signed out.
type Session struct {
	User *User
}

func (s Session) SignedIn() bool { return s.User != nil }

type Gate struct {
	mu        sync.Mutex
	providers []Provider
	user      *User
	subs      map[*Subscription]struct{}
	log       zerolog.Logger
}

func NewGate(providers ...Provider) *Gate {
	return &Gate{
		providers: providers,
		subs:      make(map[*Subscription]struct{}),
		log:       logging.Component("auth"),
	}
}

// Providers returns the configured sign-in methods in display order.
func (g *Gate) Providers() []Provider {
	return g.providers
}

// Current returns a copy of the signed-in user, or nil.
func (g *Gate) Current() *User {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.user == nil {
		return nil
	}
	u := *g.user
	return &u
}

func (g *Gate) SignedIn() bool {
	return g.Current() != nil
}

// Begin starts a sign-in with the provider identified by providerID.
func (g *Gate) Begin(ctx context.Context, providerID string) (*Authorization, error) {
	p, err := g.provider(providerID)
	if err != nil {
		return nil, err
	}

	a, err := p.Authorize(ctx)
	if err != nil {
		g.log.Error().Err(err).Str("provider", providerID).Msg("sign-in authorization failed")
		return nil, fmt.Errorf("%s: %w", p.Name(), err)
	}
	a.Provider = providerID

	g.log.Info().Str("provider", providerID).Bool("user_action", a.NeedsUserAction()).Msg("sign-in started")
	return a, nil
}

// Finish waits for the sign-in to complete and publishes the new session.
func (g *Gate) Finish(ctx context.Context, a *Authorization) (*User, error) {
	p, err := g.provider(a.Provider)
	if err != nil {
		return nil, err
	}

	user, err := p.Complete(ctx, a)
	if err != nil {
		g.log.Error().Err(err).Str("provider", a.Provider).Msg("sign-in failed")
		return nil, fmt.Errorf("%s: %w", p.Name(), err)
	}
	user.Provider = a.Provider

	g.mu.Lock()
	g.user = user
	g.publishLocked()
	g.mu.Unlock()

	g.log.Info().Str("provider", a.Provider).Str("user", user.ID).Msg("signed in")
	return user, nil
}

// SignOut ends the session.
func (g *Gate) SignOut() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.user == nil {
		return ErrNotSignedIn
	}
	g.log.Info().Str("user", g.user.ID).Msg("signed out")
	g.user = nil
	g.publishLocked()
	return nil
}

// Subscribe registers for session changes. The current session is delivered
// immediately. The caller must Close the subscription when done.
func (g *Gate) Subscribe() *Subscription {
	s := &Subscription{gate: g, ch: make(chan Session, 1)}

	g.mu.Lock()
	g.subs[s] = struct{}{}
	s.offer(g.sessionLocked())
	g.mu.Unlock()

	return s
}

func (g *Gate) provider(id string) (Provider, error) {
	for _, p := range g.providers {
		if p.ID() == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
}

func (g *Gate) sessionLocked() Session {
	if g.user == nil {
		return Session{}
	}
	u := *g.user
	return Session{User: &u}
}

func (g *Gate) publishLocked() {
	session := g.sessionLocked()
	for s := range g.subs {
		s.offer(session)
	}
}

// Subscription delivers session changes on C. Only the latest session is
// buffered; a slow reader skips intermediate states but never blocks the gate.
type Subscription struct {
	gate   *Gate
	ch     chan Session
	closed bool // guarded by gate.mu
}

func (s *Subscription) C() <-chan Session {
	return s.ch
}

// Close releases the subscription and closes C, discarding any session not
// yet received. It is safe to call twice.
func (s *Subscription) Close() {
	s.gate.mu.Lock()
	defer s.gate.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	delete(s.gate.subs, s)
	// drop an undelivered session so receives after Close report ok=false
	select {
	case <-s.ch:
	default:
	}
	close(s.ch)
}

// offer replaces any undelivered session with the new one. Callers hold gate.mu.
func (s *Subscription) offer(session Session) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- session
}
