package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"biblia-tui/internal/config"
	"biblia-tui/internal/theme"
)

type InitCmd struct {
	flags *Flags

	// flags
	force bool
}

// NewInitCmd creates a new init command
func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

// Register adds the init command to the application
func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Create the configuration file interactively",
		UsageText: "biblia-tui init [--force]",
		Description: `Prompts for the content API credentials and the sign-in methods to offer,
then writes the config file (see --config).`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "force",
				Usage:       "overwrite an existing config without asking",
				Destination: &cmd.force,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *InitCmd) run(_ context.Context, _ *cli.Command) error {
	path := cmd.flags.ConfigPath

	if _, err := os.Stat(path); err == nil && !cmd.force {
		var overwrite bool
		err := huh.NewConfirm().
			Title("Config file already exists").
			Description(path + "\nOverwrite?").
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Println("Init cancelled")
			return nil
		}
	}

	// Start from the loaded config so existing values become the defaults.
	cfg := *cmd.flags.Config

	themeOptions := make([]huh.Option[string], 0, len(theme.AllThemes()))
	for _, t := range theme.AllThemes() {
		themeOptions = append(themeOptions, huh.NewOption(t.Name, t.Key))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API base URL").
				Value(&cfg.API.BaseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("API key").
				Description("Key sent in the api-key header").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.API.Key).
				Validate(required("API key")),
			huh.NewInput().
				Title("Bible id").
				Value(&cfg.API.BibleID).
				Validate(required("Bible id")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("GitHub OAuth client id").
				Description("Leave empty to disable GitHub sign-in").
				Value(&cfg.Auth.GitHub.ClientID),
			huh.NewInput().
				Title("Google OAuth client id").
				Description("Leave empty to disable Google sign-in").
				Value(&cfg.Auth.Google.ClientID),
			huh.NewInput().
				Title("Google OAuth client secret").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Auth.Google.ClientSecret),
			huh.NewConfirm().
				Title("Allow guest sign-in?").
				Value(&cfg.Auth.AllowGuest),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Theme").
				Options(themeOptions...).
				Value(&cfg.Theme),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("Init cancelled")
			return nil
		}
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("Created config: %s\n", path)
	return nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	return nil
}
