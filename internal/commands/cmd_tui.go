package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"biblia-tui/internal/auth"
	"biblia-tui/internal/settings"
	"biblia-tui/internal/theme"
	"biblia-tui/internal/ui"
)

type TuiCmd struct {
	flags *Flags
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags) *TuiCmd {
	return &TuiCmd{flags: flags}
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config (run 'biblia-tui init'): %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, stopMetrics, err := cmd.flags.ContentClient(ctx)
	if err != nil {
		return err
	}
	defer stopMetrics()

	store := settings.NewStore(settings.DefaultPath())
	prefs, err := store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load settings, using defaults")
	}

	themeKey := cfg.Theme
	if !c.IsSet("theme") && theme.Exists(prefs.Theme) {
		themeKey = prefs.Theme
	}

	gate := auth.NewGate(Providers(cfg.Auth)...)
	sessions := gate.Subscribe()
	defer sessions.Close()

	m := ui.NewModel(ui.Options{
		Context:  ctx,
		Content:  client,
		Gate:     gate,
		Sessions: sessions,
		Settings: store,
		Prefs:    prefs,
		Theme:    theme.GetTheme(themeKey),
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
