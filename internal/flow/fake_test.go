package flow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"biblia-tui/internal/api"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errBoom = errors.New("boom")

// fakeContent serves canned data and records the contexts it was called with.
type fakeContent struct {
	mu sync.Mutex

	books    []api.Book
	booksErr error
	chapters map[string][]api.Chapter
	verses   map[string][]api.Verse
	texts    map[string]string
	textErrs map[string]error
	// blockText makes GetVerseText for these ids wait for cancellation.
	blockText map[string]bool

	textCalls []string
	canceled  []string
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		chapters:  map[string][]api.Chapter{},
		verses:    map[string][]api.Verse{},
		texts:     map[string]string{},
		textErrs:  map[string]error{},
		blockText: map[string]bool{},
	}
}

func (f *fakeContent) noteCanceled(ctx context.Context, what string) error {
	if err := ctx.Err(); err != nil {
		f.mu.Lock()
		f.canceled = append(f.canceled, what)
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeContent) ListBooks(ctx context.Context) (api.Envelope[[]api.Book], error) {
	if err := f.noteCanceled(ctx, "books"); err != nil {
		return api.Envelope[[]api.Book]{}, err
	}
	if f.booksErr != nil {
		return api.Envelope[[]api.Book]{}, f.booksErr
	}
	return api.Envelope[[]api.Book]{Data: f.books}, nil
}

func (f *fakeContent) ListChapters(ctx context.Context, bookID string) (api.Envelope[[]api.Chapter], error) {
	if err := f.noteCanceled(ctx, "chapters:"+bookID); err != nil {
		return api.Envelope[[]api.Chapter]{}, err
	}
	chapters, ok := f.chapters[bookID]
	if !ok {
		return api.Envelope[[]api.Chapter]{}, errBoom
	}
	return api.Envelope[[]api.Chapter]{Data: chapters}, nil
}

func (f *fakeContent) ListVerses(ctx context.Context, chapterID string) (api.Envelope[[]api.Verse], error) {
	if err := f.noteCanceled(ctx, "verses:"+chapterID); err != nil {
		return api.Envelope[[]api.Verse]{}, err
	}
	verses, ok := f.verses[chapterID]
	if !ok {
		return api.Envelope[[]api.Verse]{}, errBoom
	}
	return api.Envelope[[]api.Verse]{Data: verses}, nil
}

func (f *fakeContent) GetVerseText(ctx context.Context, verseID string) (api.Envelope[api.VerseContent], error) {
	f.mu.Lock()
	f.textCalls = append(f.textCalls, verseID)
	block := f.blockText[verseID]
	err := f.textErrs[verseID]
	content := f.texts[verseID]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		_ = f.noteCanceled(ctx, "text:"+verseID)
		return api.Envelope[api.VerseContent]{}, ctx.Err()
	}
	if err != nil {
		return api.Envelope[api.VerseContent]{}, err
	}
	return api.Envelope[api.VerseContent]{Data: api.VerseContent{ID: verseID, Content: content}}, nil
}

var (
	genesis = api.Book{ID: "GEN", Name: "Génesis"}
	exodo   = api.Book{ID: "EXO", Name: "Éxodo"}
	levit   = api.Book{ID: "LEV", Name: "Levítico"}

	genIntro = api.Chapter{ID: "GEN.intro", Reference: "Génesis"}
	gen1     = api.Chapter{ID: "GEN.1", Reference: "Génesis 1"}
	gen2     = api.Chapter{ID: "GEN.2", Reference: "Génesis 2"}

	gen1v1 = api.Verse{ID: "GEN.1.1", Reference: "Génesis 1:1"}
	gen1v2 = api.Verse{ID: "GEN.1.2", Reference: "Génesis 1:2"}
	gen1v3 = api.Verse{ID: "GEN.1.3", Reference: "Génesis 1:3"}
)

func seededContent() *fakeContent {
	fc := newFakeContent()
	fc.books = []api.Book{genesis, {ID: "EMPTY", Name: ""}, exodo, levit}
	fc.chapters["GEN"] = []api.Chapter{genIntro, gen1, gen2}
	fc.chapters["EXO"] = []api.Chapter{{ID: "EXO.intro"}, {ID: "EXO.1", Reference: "Éxodo 1"}}
	fc.verses["GEN.1"] = []api.Verse{gen1v1, gen1v2, gen1v3}
	fc.verses["GEN.2"] = []api.Verse{{ID: "GEN.2.1", Reference: "Génesis 2:1"}}
	fc.texts["GEN.1.1"] = "<p>En el principio creó Dios los cielos y la tierra.</p>"
	fc.texts["GEN.1.2"] = "<p>Y la tierra estaba desordenada y vacía.</p>"
	fc.texts["GEN.1.3"] = "<p>Y dijo Dios: Sea la luz: y fué la luz.</p>"
	return fc
}

// run executes fetch synchronously and applies its outcome.
func run(t *testing.T, f *Flow, fetch Fetch, ok bool) bool {
	t.Helper()
	if !ok || fetch == nil {
		t.Fatalf("expected transition to produce a fetch")
	}
	return f.Apply(fetch())
}

// newLoadedFlow returns a flow with books loaded.
func newLoadedFlow(t *testing.T, fc *fakeContent) *Flow {
	t.Helper()
	f := New(context.Background(), fc)
	if !f.Apply(f.LoadBooks()()) {
		t.Fatalf("books outcome dropped")
	}
	return f
}

// newVersesFlow returns a flow showing the verses of Génesis 1.
func newVersesFlow(t *testing.T, fc *fakeContent) *Flow {
	t.Helper()
	f := newLoadedFlow(t, fc)
	fetch, ok := f.SelectBook(genesis)
	run(t, f, fetch, ok)
	fetch, ok = f.SelectChapter(gen1)
	run(t, f, fetch, ok)
	return f
}
