package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"biblia-tui/internal/theme"
)

type ThemesCmd struct {
	flags *Flags
}

// NewThemesCmd creates a new themes command
func NewThemesCmd(flags *Flags) *ThemesCmd {
	return &ThemesCmd{flags: flags}
}

// Register adds the themes command to the application
func (cmd *ThemesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "themes",
		Usage:  "List available color themes",
		Action: cmd.run,
	})

	return app
}

func (cmd *ThemesCmd) run(_ context.Context, _ *cli.Command) error {
	return listThemes(os.Stdout, cmd.flags.Config.Theme)
}

func listThemes(out io.Writer, current string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, t := range theme.AllThemes() {
		marker := " "
		if t.Key == current {
			marker = "*"
		}
		swatch := lipgloss.NewStyle().Foreground(t.Accent).Render("●") +
			lipgloss.NewStyle().Foreground(t.Primary).Render("●") +
			lipgloss.NewStyle().Foreground(t.Highlight).Render("●")
		fmt.Fprintf(w, "%s %s\t%s\t%s\n", marker, t.Key, t.Name, swatch)
	}
	return w.Flush()
}
