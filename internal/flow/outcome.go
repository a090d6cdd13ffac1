package flow

import (
	"fmt"

	"biblia-tui/internal/api"
)

// Op names the remote operation behind a fetch.
type Op int

const (
	OpBooks Op = iota + 1
	OpChapters
	OpVerses
	OpTexts
)

func (o Op) String() string {
	switch o {
	case OpBooks:
		return "books"
	case OpChapters:
		return "chapters"
	case OpVerses:
		return "verses"
	case OpTexts:
		return "texts"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Ticket tags a fetch with the generation it was issued under.
type Ticket struct {
	Op  Op
	Gen uint64
}

// Fetch performs the network half of a transition. It is safe to run off the
// UI loop; its Outcome must be handed back to Flow.Apply.
type Fetch func() Outcome

// Outcome is the result of a Fetch. Exactly one of the concrete *Loaded types.
type Outcome interface {
	ticket() Ticket
	err() error
}

type BooksLoaded struct {
	Ticket Ticket
	Books  []api.Book
	Err    error
}

type ChaptersLoaded struct {
	Ticket   Ticket
	BookID   string
	Chapters []api.Chapter
	Err      error
}

type VersesLoaded struct {
	Ticket    Ticket
	ChapterID string
	Verses    []api.Verse
	Err       error
}

// TextsLoaded holds plain verse texts aligned with VerseIDs.
type TextsLoaded struct {
	Ticket   Ticket
	VerseIDs []string
	Texts    []string
	Err      error
}

func (o BooksLoaded) ticket() Ticket    { return o.Ticket }
func (o ChaptersLoaded) ticket() Ticket { return o.Ticket }
func (o VersesLoaded) ticket() Ticket   { return o.Ticket }
func (o TextsLoaded) ticket() Ticket    { return o.Ticket }

func (o BooksLoaded) err() error    { return o.Err }
func (o ChaptersLoaded) err() error { return o.Err }
func (o VersesLoaded) err() error   { return o.Err }
func (o TextsLoaded) err() error    { return o.Err }

// Failure records the last operation that failed in the current view.
type Failure struct {
	Op  Op
	Err error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}
