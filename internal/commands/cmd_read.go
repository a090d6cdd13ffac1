package commands

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"biblia-tui/internal/api"
	"biblia-tui/internal/flow"
)

const readWrapWidth = 80

type ReadCmd struct {
	flags *Flags

	// flags
	plain bool
}

// NewReadCmd creates a new read command
func NewReadCmd(flags *Flags) *ReadCmd {
	return &ReadCmd{flags: flags}
}

// Register adds the read command to the application
func (cmd *ReadCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "read",
		Usage:     "Print the text of one or more verses",
		UsageText: "biblia-tui read [--plain] <verse-id>...",
		Description: `Fetches the given verses and prints them in verse order.

Verse ids use the provider's format, e.g. GEN.1.1 or JHN.3.16.
Output is rendered as markdown when stdout is a terminal.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "plain",
				Usage:       "print plain text even on a terminal",
				Destination: &cmd.plain,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ReadCmd) run(ctx context.Context, c *cli.Command) error {
	ids := c.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("at least one verse id is required")
	}

	if err := cmd.flags.Config.API.Validate(); err != nil {
		return fmt.Errorf("invalid config (run 'biblia-tui init'): %w", err)
	}

	client, stopMetrics, err := cmd.flags.ContentClient(ctx)
	if err != nil {
		return err
	}
	defer stopMetrics()

	verses := make([]api.Verse, len(ids))
	for i, id := range ids {
		verses[i] = api.Verse{ID: id, Reference: ReferenceFromID(id)}
	}
	sortVerses(verses)

	texts, err := flow.FetchVerseTexts(ctx, client, verses)
	if err != nil {
		return fmt.Errorf("fetch verses: %w", err)
	}

	if cmd.plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return writePlain(os.Stdout, verses, texts)
	}
	return writeMarkdown(os.Stdout, verses, texts)
}

// sortVerses orders verses by chapter, then verse number. Books keep the
// order of their first appearance; ids not shaped like BOOK.C.V go last in
// argument order.
func sortVerses(verses []api.Verse) {
	rank := make(map[string]int)
	for _, v := range verses {
		if book, _, _, ok := parseVerseID(v.ID); ok {
			if _, seen := rank[book]; !seen {
				rank[book] = len(rank)
			}
		}
	}

	slices.SortStableFunc(verses, func(a, b api.Verse) int {
		ab, ac, av, aok := parseVerseID(a.ID)
		bb, bc, bv, bok := parseVerseID(b.ID)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		return cmp.Or(
			cmp.Compare(rank[ab], rank[bb]),
			cmp.Compare(ac, bc),
			cmp.Compare(av, bv),
		)
	})
}

func parseVerseID(id string) (book string, chapter, verse int, ok bool) {
	parts := strings.Split(id, ".")
	if len(parts) != 3 {
		return "", 0, 0, false
	}
	chapter, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, false
	}
	verse, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, false
	}
	return parts[0], chapter, verse, true
}

// ReferenceFromID turns a provider verse id like "GEN.1.3" into "GEN 1:3".
// Ids in any other shape are returned unchanged.
func ReferenceFromID(id string) string {
	parts := strings.Split(id, ".")
	if len(parts) != 3 {
		return id
	}
	return fmt.Sprintf("%s %s:%s", parts[0], parts[1], parts[2])
}

func writePlain(w io.Writer, verses []api.Verse, texts []string) error {
	for i, text := range texts {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", verses[i].Reference, text); err != nil {
			return err
		}
	}
	return nil
}

func markdown(verses []api.Verse, texts []string) string {
	var b strings.Builder
	for i, text := range texts {
		fmt.Fprintf(&b, "**%s**\n\n> %s\n\n", verses[i].Reference, text)
	}
	return b.String()
}

func writeMarkdown(w io.Writer, verses []api.Verse, texts []string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(readWrapWidth),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	out, err := r.Render(markdown(verses, texts))
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
