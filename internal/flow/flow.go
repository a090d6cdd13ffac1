// Package flow implements the book → chapter → verse selection state machine.
//
// Flow owns all browsing state and is driven from a single goroutine (the UI
// loop). Transitions that need the content provider return a Fetch; the host
// runs it wherever it likes and passes the Outcome back to Apply. Every fetch
// carries a generation Ticket and a cancellable context, so results that
// arrive after the user has moved on are cancelled or dropped instead of
// overwriting newer state.
package flow

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"biblia-tui/internal/api"
	"biblia-tui/internal/logging"
)

// ErrNoSelection is returned by FetchVerseTexts when given no verses.
var ErrNoSelection = errors.New("no verses selected")

// State is the drill-down position.
type State int

const (
	StateBrowsing State = iota
	StateChaptersShown
	StateVersesShown
)

func (s State) String() string {
	switch s {
	case StateBrowsing:
		return "browsing"
	case StateChaptersShown:
		return "chapters"
	case StateVersesShown:
		return "verses"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Flow struct {
	content api.Content
	parent  context.Context
	log     zerolog.Logger

	books    []api.Book
	filtered []api.Book
	query    string

	book     *api.Book
	chapters []api.Chapter
	chapter  *api.Chapter
	verses   []api.Verse

	selection []api.Verse
	texts     []string
	modal     bool

	loading  bool
	inFlight Op
	failure  *Failure

	gen    uint64
	cancel context.CancelFunc

	// The book list loads on its own lane so drill-down transitions never
	// cancel it.
	booksLoading bool
	booksGen     uint64
	booksCancel  context.CancelFunc
}

// New creates a Flow reading from content. Fetch contexts derive from ctx.
func New(ctx context.Context, content api.Content) *Flow {
	return &Flow{
		content: content,
		parent:  ctx,
		log:     logging.Component("flow"),
	}
}

// LoadBooks fetches the book list, superseding an earlier book load but
// leaving any chapter, verse or text fetch running.
func (f *Flow) LoadBooks() Fetch {
	if f.booksCancel != nil {
		f.booksCancel()
	}
	ctx, cancel := context.WithCancel(f.parent)
	f.booksCancel = cancel
	f.booksGen++
	f.booksLoading = true
	if f.failure != nil && f.failure.Op == OpBooks {
		f.failure = nil
	}

	t := Ticket{Op: OpBooks, Gen: f.booksGen}
	content := f.content
	return func() Outcome {
		resp, err := content.ListBooks(ctx)
		return BooksLoaded{Ticket: t, Books: resp.Data, Err: err}
	}
}

// SetQuery filters the book list by case-insensitive substring match
// against the full list. An empty query shows every book.
func (f *Flow) SetQuery(q string) {
	f.query = q
	f.filtered = filterBooks(f.books, q)
}

// SelectBook moves to the chapter list of book, resetting everything below it.
// Books without a name are not selectable.
func (f *Flow) SelectBook(book api.Book) (Fetch, bool) {
	if strings.TrimSpace(book.Name) == "" {
		return nil, false
	}

	f.book = &book
	f.chapters = nil
	f.clearChapter()

	ctx, t := f.begin(OpChapters)
	content := f.content
	bookID := book.ID
	f.log.Debug().Str("book", bookID).Uint64("gen", t.Gen).Msg("book selected")
	return func() Outcome {
		resp, err := content.ListChapters(ctx, bookID)
		return ChaptersLoaded{Ticket: t, BookID: bookID, Chapters: resp.Data, Err: err}
	}, true
}

// SelectChapter moves to the verse list of chapter. It requires a selected
// book and refuses the front-matter entry.
func (f *Flow) SelectChapter(chapter api.Chapter) (Fetch, bool) {
	if f.book == nil {
		return nil, false
	}
	if len(f.chapters) > 0 && f.chapters[0].ID == chapter.ID {
		return nil, false
	}

	f.clearChapter()
	f.chapter = &chapter

	ctx, t := f.begin(OpVerses)
	content := f.content
	chapterID := chapter.ID
	f.log.Debug().Str("chapter", chapterID).Uint64("gen", t.Gen).Msg("chapter selected")
	return func() Outcome {
		resp, err := content.ListVerses(ctx, chapterID)
		return VersesLoaded{Ticket: t, ChapterID: chapterID, Verses: resp.Data, Err: err}
	}, true
}

// ToggleVerse adds verse to the selection, or removes it when already
// selected. It reports false when no verse list is shown or the selected
// texts are being fetched.
func (f *Flow) ToggleVerse(verse api.Verse) bool {
	if f.State() != StateVersesShown {
		return false
	}
	if f.loading && f.inFlight == OpTexts {
		return false
	}

	if i := slices.IndexFunc(f.selection, func(v api.Verse) bool { return v.ID == verse.ID }); i >= 0 {
		f.selection = slices.Delete(f.selection, i, i+1)
		return true
	}
	f.selection = append(f.selection, verse)
	return true
}

// FetchTexts sorts the selection by verse number, keeps that order as the
// selection, and fetches every verse text in parallel. The batch is
// all-or-nothing: the first failure cancels the rest.
func (f *Flow) FetchTexts() (Fetch, bool) {
	if f.State() != StateVersesShown || len(f.selection) == 0 || f.loading {
		return nil, false
	}

	SortByVerseNumber(f.selection)
	verses := slices.Clone(f.selection)
	ids := make([]string, len(verses))
	for i, v := range verses {
		ids[i] = v.ID
	}

	ctx, t := f.begin(OpTexts)
	content := f.content
	return func() Outcome {
		texts, err := FetchVerseTexts(ctx, content, verses)
		return TextsLoaded{Ticket: t, VerseIDs: ids, Texts: texts, Err: err}
	}, true
}

// CloseModal hides the result modal and clears the selection and texts.
func (f *Flow) CloseModal() {
	f.modal = false
	f.selection = nil
	f.texts = nil
}

// Back returns to the parent drill-down position, cancelling any fetch in
// flight. It reports false when already at the book list.
func (f *Flow) Back() bool {
	switch f.State() {
	case StateVersesShown:
		f.clearChapter()
	case StateChaptersShown:
		f.book = nil
		f.chapters = nil
		f.clearChapter()
	default:
		return false
	}

	f.invalidate()
	f.failure = nil
	return true
}

// Reset drops the drill-down, selection and query, keeping the loaded books.
func (f *Flow) Reset() {
	f.book = nil
	f.chapters = nil
	f.clearChapter()
	f.invalidate()
	f.failure = nil
	f.SetQuery("")
}

// Retry re-issues the operation that last failed.
func (f *Flow) Retry() (Fetch, bool) {
	if f.failure == nil {
		return nil, false
	}
	if f.failure.Op == OpBooks {
		if f.booksLoading {
			return nil, false
		}
		return f.LoadBooks(), true
	}
	if f.loading {
		return nil, false
	}

	switch f.failure.Op {
	case OpChapters:
		if f.book != nil {
			return f.SelectBook(*f.book)
		}
	case OpVerses:
		if f.chapter != nil {
			return f.SelectChapter(*f.chapter)
		}
	case OpTexts:
		return f.FetchTexts()
	}
	return nil, false
}

// Apply folds an outcome into the state. Outcomes from a superseded
// generation are discarded and Apply reports false.
func (f *Flow) Apply(o Outcome) bool {
	t := o.ticket()
	if t.Op == OpBooks {
		return f.applyBooks(o)
	}
	if t.Gen != f.gen {
		f.log.Debug().
			Stringer("op", t.Op).
			Uint64("gen", t.Gen).
			Uint64("current", f.gen).
			Msg("dropping stale outcome")
		return false
	}

	f.loading = false
	f.inFlight = 0
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}

	if err := o.err(); err != nil {
		f.failure = &Failure{Op: t.Op, Err: err}
		f.log.Error().Err(err).Stringer("op", t.Op).Msg("fetch failed")
		return true
	}

	switch o := o.(type) {
	case ChaptersLoaded:
		f.chapters = o.Chapters
	case VersesLoaded:
		f.verses = o.Verses
	case TextsLoaded:
		f.texts = o.Texts
		f.modal = true
	}
	return true
}

func (f *Flow) applyBooks(o Outcome) bool {
	t := o.ticket()
	if t.Gen != f.booksGen {
		f.log.Debug().Uint64("gen", t.Gen).Uint64("current", f.booksGen).Msg("dropping stale book list")
		return false
	}

	f.booksLoading = false
	if f.booksCancel != nil {
		f.booksCancel()
		f.booksCancel = nil
	}

	if err := o.err(); err != nil {
		f.failure = &Failure{Op: OpBooks, Err: err}
		f.log.Error().Err(err).Stringer("op", OpBooks).Msg("fetch failed")
		return true
	}

	if loaded, ok := o.(BooksLoaded); ok {
		f.books = namedBooks(loaded.Books)
		f.filtered = filterBooks(f.books, f.query)
	}
	return true
}

func (f *Flow) State() State {
	switch {
	case f.book == nil:
		return StateBrowsing
	case f.chapter == nil:
		return StateChaptersShown
	default:
		return StateVersesShown
	}
}

// Books returns the filtered book list.
func (f *Flow) Books() []api.Book { return f.filtered }

// AllBooks returns every named book regardless of the query.
func (f *Flow) AllBooks() []api.Book { return f.books }

func (f *Flow) Query() string { return f.query }

func (f *Flow) Book() (api.Book, bool) {
	if f.book == nil {
		return api.Book{}, false
	}
	return *f.book, true
}

// Chapters returns the selectable chapters; the leading front-matter entry
// the provider includes is left out.
func (f *Flow) Chapters() []api.Chapter {
	if len(f.chapters) == 0 {
		return nil
	}
	return f.chapters[1:]
}

func (f *Flow) Chapter() (api.Chapter, bool) {
	if f.chapter == nil {
		return api.Chapter{}, false
	}
	return *f.chapter, true
}

func (f *Flow) Verses() []api.Verse { return f.verses }

func (f *Flow) Selection() []api.Verse { return slices.Clone(f.selection) }

func (f *Flow) IsSelected(verseID string) bool {
	return slices.ContainsFunc(f.selection, func(v api.Verse) bool { return v.ID == verseID })
}

func (f *Flow) Texts() []string { return slices.Clone(f.texts) }

// Loading reports whether any fetch of the current view is in flight.
func (f *Flow) Loading() bool { return f.loading || f.booksLoading }

// Pending reports whether op is in flight.
func (f *Flow) Pending(op Op) bool {
	if op == OpBooks {
		return f.booksLoading
	}
	return f.loading && f.inFlight == op
}

func (f *Flow) ModalOpen() bool { return f.modal }

// Failure returns the last failure in the current view, or nil.
func (f *Flow) Failure() *Failure { return f.failure }

// begin starts a new drill-down generation for op, cancelling whatever
// chapter, verse or text fetch was in flight. Book loads are unaffected.
func (f *Flow) begin(op Op) (context.Context, Ticket) {
	f.invalidate()
	ctx, cancel := context.WithCancel(f.parent)
	f.cancel = cancel
	f.loading = true
	f.inFlight = op
	f.failure = nil
	return ctx, Ticket{Op: op, Gen: f.gen}
}

// invalidate cancels the in-flight fetch and bumps the generation so its
// outcome is ignored.
func (f *Flow) invalidate() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.gen++
	f.loading = false
	f.inFlight = 0
}

func (f *Flow) clearChapter() {
	f.chapter = nil
	f.verses = nil
	f.selection = nil
	f.texts = nil
	f.modal = false
}

// FetchVerseTexts fetches the plain text of every verse concurrently. Texts are
// aligned with verses; any failure fails the whole batch.
func FetchVerseTexts(ctx context.Context, content api.Content, verses []api.Verse) ([]string, error) {
	if len(verses) == 0 {
		return nil, ErrNoSelection
	}

	g, gctx := errgroup.WithContext(ctx)
	texts := make([]string, len(verses))
	for i, v := range verses {
		g.Go(func() error {
			resp, err := content.GetVerseText(gctx, v.ID)
			if err != nil {
				return fmt.Errorf("verse %s: %w", v.ID, err)
			}
			text, err := api.PlainText(resp.Data.Content)
			if err != nil {
				return fmt.Errorf("verse %s: parse content: %w", v.ID, err)
			}
			texts[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

// SortByVerseNumber orders verses ascending by the number after the last ':'
// of their reference. The sort is stable; references without a number go last.
func SortByVerseNumber(verses []api.Verse) {
	slices.SortStableFunc(verses, func(a, b api.Verse) int {
		an, aok := VerseNumber(a.Reference)
		bn, bok := VerseNumber(b.Reference)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		return cmp.Compare(an, bn)
	})
}

// VerseNumber parses the verse component of a reference like "Génesis 1:3".
func VerseNumber(reference string) (int, bool) {
	i := strings.LastIndex(reference, ":")
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(reference[i+1:]))
	if err != nil {
		return 0, false
	}
	return n, true
}

func namedBooks(books []api.Book) []api.Book {
	out := make([]api.Book, 0, len(books))
	for _, b := range books {
		if strings.TrimSpace(b.Name) != "" {
			out = append(out, b)
		}
	}
	return out
}

func filterBooks(books []api.Book, query string) []api.Book {
	if query == "" {
		return books
	}
	q := strings.ToLower(query)
	out := make([]api.Book, 0, len(books))
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Name), q) {
			out = append(out, b)
		}
	}
	return out
}
