package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"biblia-tui/internal/api"
	"biblia-tui/internal/auth"
	"biblia-tui/internal/flow"
	"biblia-tui/internal/settings"
	"biblia-tui/internal/theme"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errUnavailable = errors.New("service unavailable")

type stubContent struct {
	booksErr error
	books    []api.Book
	chapters map[string][]api.Chapter
	verses   map[string][]api.Verse
	texts    map[string]string
}

func newStubContent() *stubContent {
	return &stubContent{
		books: []api.Book{
			{ID: "GEN", Name: "Génesis"},
			{ID: "EXO", Name: "Éxodo"},
			{ID: "LEV", Name: "Levítico"},
		},
		chapters: map[string][]api.Chapter{
			"GEN": {
				{ID: "GEN.intro", Number: "intro", Reference: "Génesis"},
				{ID: "GEN.1", Number: "1", Reference: "Génesis 1"},
				{ID: "GEN.2", Number: "2", Reference: "Génesis 2"},
			},
		},
		verses: map[string][]api.Verse{
			"GEN.1": {
				{ID: "GEN.1.1", Reference: "Génesis 1:1"},
				{ID: "GEN.1.2", Reference: "Génesis 1:2"},
				{ID: "GEN.1.3", Reference: "Génesis 1:3"},
			},
		},
		texts: map[string]string{
			"GEN.1.1": `<p class="p"><span class="v">1</span>En el principio</p>`,
			"GEN.1.2": `<p class="p"><span class="v">2</span>Y la tierra</p>`,
			"GEN.1.3": `<p class="p"><span class="v">3</span>Sea la luz</p>`,
		},
	}
}

func (s *stubContent) ListBooks(ctx context.Context) (api.Envelope[[]api.Book], error) {
	if err := ctx.Err(); err != nil {
		return api.Envelope[[]api.Book]{}, err
	}
	if s.booksErr != nil {
		return api.Envelope[[]api.Book]{}, s.booksErr
	}
	return api.Envelope[[]api.Book]{Data: s.books}, nil
}

func (s *stubContent) ListChapters(ctx context.Context, bookID string) (api.Envelope[[]api.Chapter], error) {
	if err := ctx.Err(); err != nil {
		return api.Envelope[[]api.Chapter]{}, err
	}
	return api.Envelope[[]api.Chapter]{Data: s.chapters[bookID]}, nil
}

func (s *stubContent) ListVerses(ctx context.Context, chapterID string) (api.Envelope[[]api.Verse], error) {
	if err := ctx.Err(); err != nil {
		return api.Envelope[[]api.Verse]{}, err
	}
	return api.Envelope[[]api.Verse]{Data: s.verses[chapterID]}, nil
}

func (s *stubContent) GetVerseText(ctx context.Context, verseID string) (api.Envelope[api.VerseContent], error) {
	if err := ctx.Err(); err != nil {
		return api.Envelope[api.VerseContent]{}, err
	}
	return api.Envelope[api.VerseContent]{Data: api.VerseContent{ID: verseID, Content: s.texts[verseID]}}, nil
}

// fetchRecorder queues fetches instead of running them so tests decide when
// and in which order outcomes arrive.
type fetchRecorder struct {
	pending []flow.Fetch
}

func (r *fetchRecorder) run(fetch flow.Fetch) tea.Cmd {
	r.pending = append(r.pending, fetch)
	return nil
}

func (r *fetchRecorder) take(t *testing.T) flow.Fetch {
	t.Helper()
	require.NotEmpty(t, r.pending, "no fetch was issued")
	f := r.pending[0]
	r.pending = r.pending[1:]
	return f
}

type harness struct {
	t       *testing.T
	m       Model
	gate    *auth.Gate
	content *stubContent
	fetches *fetchRecorder
}

func newHarness(t *testing.T, store *settings.Store) *harness {
	t.Helper()

	content := newStubContent()
	gate := auth.NewGate(auth.GuestProvider{})
	rec := &fetchRecorder{}

	m := NewModel(Options{
		Context:  context.Background(),
		Content:  content,
		Gate:     gate,
		Settings: store,
		Theme:    theme.Verde,
	})
	m.runFetch = rec.run

	h := &harness{t: t, m: m, gate: gate, content: content, fetches: rec}
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) press(keys ...tea.KeyMsg) {
	h.t.Helper()
	for _, k := range keys {
		h.send(k)
	}
}

func (h *harness) resolve() {
	h.t.Helper()
	h.send(outcomeMsg{h.fetches.take(h.t)()})
}

func (h *harness) view() string {
	return ansi.Strip(h.m.View())
}

// signIn walks the login screen with the guest provider and mounts the browser.
func (h *harness) signIn() {
	h.t.Helper()

	cmd := h.send(keyPress(tea.KeyEnter))
	require.NotNil(h.t, cmd)
	cmd = h.send(cmd())
	require.NotNil(h.t, cmd)
	h.send(cmd())
	require.True(h.t, h.gate.SignedIn())

	h.send(sessionMsg{session: auth.Session{User: h.gate.Current()}, ok: true})
	require.Equal(h.t, routeBrowser, h.m.route)
}

func keyPress(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.send(runes(string(r)))
	}
}

func TestLoginScreenListsProviders(t *testing.T) {
	h := newHarness(t, nil)

	assert.Equal(t, routeLogin, h.m.route)
	assert.Contains(t, h.view(), "Continuar con Invitado")
}

func TestSignInLoadsBooks(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn()

	assert.True(t, h.m.flow.Loading())
	assert.Contains(t, h.view(), "Cargando...")

	h.resolve()

	v := h.view()
	assert.Contains(t, v, "Génesis")
	assert.Contains(t, v, "Levítico")
	assert.Contains(t, v, "Selecciona un libro para empezar")
	assert.Contains(t, v, "Invitado")
}

func TestDrillDownAndFetchTexts(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn()
	h.resolve()

	h.press(keyPress(tea.KeyEnter))
	h.resolve()

	v := h.view()
	assert.Equal(t, flow.StateChaptersShown, h.m.flow.State())
	assert.Contains(t, v, "Volver a los libros")
	assert.Contains(t, v, "Capítulo 1")
	assert.NotContains(t, v, "Capítulo intro")

	h.press(keyPress(tea.KeyEnter))
	h.resolve()
	assert.Equal(t, flow.StateVersesShown, h.m.flow.State())
	assert.Contains(t, h.view(), "Volver al capítulo")

	// select 1:3 then 1:1, out of order
	h.press(keyPress(tea.KeyDown), keyPress(tea.KeyDown), keyPress(tea.KeySpace), keyPress(tea.KeyUp), keyPress(tea.KeyUp), keyPress(tea.KeySpace))
	assert.Len(t, h.m.flow.Selection(), 2)
	assert.Contains(t, h.view(), "[x] Génesis 1:1")
	assert.Contains(t, h.view(), "[ ] Génesis 1:2")

	h.press(runes("f"))
	h.resolve()

	require.True(t, h.m.flow.ModalOpen())
	assert.Equal(t, []string{"1En el principio", "3Sea la luz"}, h.m.flow.Texts())
	v = h.view()
	assert.Contains(t, v, "Génesis 1:1")
	assert.Contains(t, v, "En el principio")
	assert.Contains(t, v, "Sea la luz")

	h.press(keyPress(tea.KeyEsc))
	assert.False(t, h.m.flow.ModalOpen())
	assert.Empty(t, h.m.flow.Selection())
	assert.Equal(t, flow.StateVersesShown, h.m.flow.State())
}

func TestBackDropsInFlightChapters(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn()
	h.resolve()

	h.press(keyPress(tea.KeyEnter))
	h.press(keyPress(tea.KeyEsc))
	assert.Equal(t, flow.StateBrowsing, h.m.flow.State())
	assert.Equal(t, paneBooks, h.m.focus)

	h.resolve()
	assert.Equal(t, flow.StateBrowsing, h.m.flow.State())
	assert.Nil(t, h.m.flow.Failure())
	assert.Contains(t, h.view(), "Selecciona un libro para empezar")
}

func TestFailureBannerAndRetry(t *testing.T) {
	h := newHarness(t, nil)
	h.content.booksErr = errUnavailable
	h.signIn()
	h.resolve()

	v := h.view()
	assert.Contains(t, v, "Error al cargar los libros")
	assert.Contains(t, v, "r para reintentar")

	h.content.booksErr = nil
	h.press(runes("r"))
	h.resolve()

	assert.Nil(t, h.m.flow.Failure())
	assert.Contains(t, h.view(), "Génesis")
}

func TestSearchFiltersBooks(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn()
	h.resolve()

	h.press(runes("/"))
	h.typeText("lev")

	assert.Equal(t, "lev", h.m.flow.Query())
	require.Len(t, h.m.flow.Books(), 1)
	assert.Equal(t, "LEV", h.m.flow.Books()[0].ID)

	h.press(keyPress(tea.KeyEnter))
	assert.False(t, h.m.search.Focused())

	h.press(keyPress(tea.KeyEnter))
	book, ok := h.m.flow.Book()
	require.True(t, ok)
	assert.Equal(t, "LEV", book.ID)
}

func TestSignOutReturnsToLogin(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn()
	h.resolve()

	cmd := h.send(runes("x"))
	require.NotNil(t, cmd)
	h.send(cmd())
	assert.False(t, h.gate.SignedIn())

	h.send(sessionMsg{session: auth.Session{}, ok: true})
	assert.Equal(t, routeLogin, h.m.route)
	assert.Equal(t, flow.StateBrowsing, h.m.flow.State())
	assert.Contains(t, h.view(), "Continuar con Invitado")
}

func TestCancelledDeviceSignInIsIgnored(t *testing.T) {
	h := newHarness(t, nil)

	cmd := h.send(keyPress(tea.KeyEnter))
	require.NotNil(t, cmd)
	started := cmd()
	h.press(keyPress(tea.KeyEsc))
	assert.False(t, h.m.login.pending)

	assert.Nil(t, h.send(started))
	assert.False(t, h.gate.SignedIn())
}

func TestThemeCycleIsPersisted(t *testing.T) {
	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"))
	h := newHarness(t, store)
	h.signIn()
	h.resolve()

	cmd := h.send(runes("t"))
	require.NotNil(t, cmd)
	h.send(cmd())

	want := theme.Next(theme.Verde)
	assert.Equal(t, want.Key, h.m.theme.Key)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Key, saved.Theme)
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name               string
		cursor, n, height  int
		wantStart, wantEnd int
	}{
		{"fits", 3, 5, 10, 0, 5},
		{"top", 0, 20, 5, 0, 5},
		{"middle", 10, 20, 5, 8, 13},
		{"bottom", 19, 20, 5, 15, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := window(tt.cursor, tt.n, tt.height)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestRenderListTruncatesLongLabels(t *testing.T) {
	m := NewModel(Options{Theme: theme.Verde})

	out := ansi.Strip(m.renderList([]string{"Primera epístola de Pedro", "Rut"}, 1, 10, 12, true, nil))
	rows := strings.Split(out, "\n")

	require.Len(t, rows, 2)
	assert.Equal(t, "  Primera e…", rows[0])
	assert.Equal(t, "> Rut", rows[1])
	assert.Equal(t, 12, ansi.StringWidth(rows[0]))
}
