package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"biblia-tui/internal/api"
	"biblia-tui/internal/auth"
	"biblia-tui/internal/config"
)

type Flags struct {
	LogLevel    string
	LogFile     string
	ConfigPath  string
	APIURL      string
	APIKey      string
	BibleID     string
	Theme       string
	MetricsAddr string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// GlobalFlags returns the flags shared by every command.
func (f *Flags) GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Sources:     cli.EnvVars("BIBLIA_LOG_LEVEL"),
			Value:       "info",
			Destination: &f.LogLevel,
		},
		&cli.StringFlag{
			Name:        "log-file",
			Usage:       "path to log file",
			Sources:     cli.EnvVars("BIBLIA_LOG_FILE"),
			Value:       config.DefaultLogFile(),
			Destination: &f.LogFile,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "path to config file",
			Sources:     cli.EnvVars("BIBLIA_CONFIG"),
			Value:       config.DefaultPath(),
			Destination: &f.ConfigPath,
		},
		&cli.StringFlag{
			Name:        "api-url",
			Usage:       "content API base URL",
			Sources:     cli.EnvVars("BIBLIA_API_URL"),
			Destination: &f.APIURL,
		},
		&cli.StringFlag{
			Name:        "api-key",
			Usage:       "content API key",
			Sources:     cli.EnvVars("BIBLIA_API_KEY"),
			Destination: &f.APIKey,
		},
		&cli.StringFlag{
			Name:        "bible-id",
			Usage:       "bible translation id",
			Sources:     cli.EnvVars("BIBLIA_BIBLE_ID"),
			Destination: &f.BibleID,
		},
		&cli.StringFlag{
			Name:        "theme",
			Usage:       "color theme (see 'biblia-tui themes')",
			Sources:     cli.EnvVars("BIBLIA_THEME"),
			Destination: &f.Theme,
		},
		&cli.StringFlag{
			Name:        "metrics-addr",
			Usage:       "serve prometheus metrics on this address (e.g. 127.0.0.1:9464)",
			Sources:     cli.EnvVars("BIBLIA_METRICS_ADDR"),
			Destination: &f.MetricsAddr,
		},
	}
}

// LoadConfig reads the config file and applies flag and environment
// overrides. The result is stored on f.Config.
func (f *Flags) LoadConfig(c *cli.Command) error {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if c.IsSet("api-url") {
		cfg.API.BaseURL = f.APIURL
	}
	if c.IsSet("api-key") {
		cfg.API.Key = f.APIKey
	}
	if c.IsSet("bible-id") {
		cfg.API.BibleID = f.BibleID
	}
	if c.IsSet("theme") {
		cfg.Theme = f.Theme
	}
	config.ApplyEnv(cfg)

	f.Config = cfg
	return nil
}

// ContentClient builds the content API client. When a metrics address is
// configured, a metrics server is started and stopped by the returned func.
func (f *Flags) ContentClient(ctx context.Context) (*api.Client, func(), error) {
	cfg := f.Config.API
	opts := []api.Option{api.WithTimeout(cfg.Timeout)}
	stop := func() {}

	if f.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		opts = append(opts, api.WithMetrics(api.NewMetrics(reg)))

		shutdown, err := serveMetrics(ctx, f.MetricsAddr, reg)
		if err != nil {
			return nil, nil, err
		}
		stop = shutdown
	}

	return api.NewClient(cfg.BaseURL, cfg.Key, cfg.BibleID, opts...), stop, nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}

// Providers returns the sign-in methods enabled in cfg, in display order.
func Providers(cfg config.AuthConfig) []auth.Provider {
	var providers []auth.Provider
	if cfg.GitHub.Enabled() {
		providers = append(providers, auth.GitHub(cfg.GitHub.ClientID))
	}
	if cfg.Google.Enabled() {
		providers = append(providers, auth.Google(cfg.Google.ClientID, cfg.Google.ClientSecret))
	}
	if cfg.AllowGuest {
		providers = append(providers, auth.GuestProvider{})
	}
	return providers
}
