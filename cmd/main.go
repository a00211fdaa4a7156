package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gcalevent/internal/auth"
	"gcalevent/internal/config"
	"gcalevent/internal/dav"
	"gcalevent/internal/google"
	"gcalevent/internal/ics"
	"gcalevent/internal/publisher"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "gcalevent",
		Usage:  "Create a Google Calendar event from the command line.",
		Flags:  append(commonFlags(), eventFlags()...),
		Action: createAction,
		Commands: []*cli.Command{
			authCommand(),
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Value: config.DefaultPath(), Usage: "YAML config file", EnvVars: []string{"GCALEVENT_CONFIG"}},
		&cli.StringFlag{Name: "credentials", Usage: "OAuth client secret file", EnvVars: []string{"GCALEVENT_CREDENTIALS"}},
		&cli.StringFlag{Name: "token", Usage: "Cached credential file", EnvVars: []string{"GCALEVENT_TOKEN"}},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		&cli.DurationFlag{Name: "auth-timeout", Usage: "How long to wait for browser consent (0 waits forever)"},
		&cli.StringFlag{Name: "callback-addr", Usage: "Listen address for the OAuth redirect"},
		&cli.BoolFlag{Name: "no-browser", Usage: "Print the consent link instead of opening a browser"},
	}
}

func eventFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "calendar", Aliases: []string{"c"}, Usage: "Calendar ID"},
		&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Usage: "Event summary"},
		&cli.StringFlag{Name: "location", Aliases: []string{"l"}, Usage: "Event location"},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Event description"},
		&cli.StringFlag{Name: "start", Aliases: []string{"S"}, Usage: "Event start date"},
		&cli.StringFlag{Name: "end", Aliases: []string{"E"}, Usage: "Event end date"},
		&cli.StringFlag{Name: "timezone", Aliases: []string{"z"}, Usage: "Event timezone"},
		&cli.StringFlag{Name: "ics-out", Usage: "Also write the created event to this .ics file"},
		&cli.BoolFlag{Name: "caldav", Usage: "Also copy the created event to the configured CalDAV calendar"},
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize with Google and cache the credential without creating an event.",
		Flags: commonFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)

			p := publisher.New(logger, newManager(logger, cfg, c.App.Writer), nil, c.App.Writer)
			h, err := p.Authorize(c.Context)
			if err != nil {
				return err
			}

			switch {
			case h.FromCache():
				logger.Info("Already authorized.", "file", cfg.TokenPath)
			case h.PersistErr != nil:
				logger.Warn("Authorized, but the credential could not be cached.", "error", h.PersistErr)
			default:
				logger.Info("Successfully authenticated and saved token.", "file", cfg.TokenPath)
			}
			return nil
		},
	}
}

func createAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel)

	var mirrors []publisher.Mirror
	if cfg.ICSOut != "" {
		mirrors = append(mirrors, ics.NewFileMirror(cfg.ICSOut))
	}
	if cfg.CalDAV.Enabled {
		client, err := dav.NewClient(c.Context, logger, dav.Options{
			Endpoint:     cfg.CalDAV.URL,
			Username:     cfg.CalDAV.Username,
			Password:     cfg.CalDAV.Password,
			CalendarName: cfg.CalDAV.CalendarName,
			CalendarPath: cfg.CalDAV.CalendarPath,
		})
		if err != nil {
			return fmt.Errorf("failed to create caldav client: %w", err)
		}
		mirrors = append(mirrors, client)
	}

	newCreator := func(ctx context.Context, h *auth.Handle) (publisher.EventCreator, error) {
		client, err := google.NewClient(ctx, logger, h.HTTPClient(ctx))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	p := publisher.New(logger, newManager(logger, cfg, c.App.Writer), newCreator, c.App.Writer, mirrors...)
	_, err = p.Publish(c.Context, cfg.Event)
	return err
}

func newManager(logger *slog.Logger, cfg *config.Config, out io.Writer) *auth.Manager {
	consent := auth.NewLoopbackConsent(logger, cfg.CallbackAddr, cfg.ConsentTimeout, out)
	if cfg.NoBrowser {
		consent.OpenBrowser = nil
	}
	store := auth.NewFileStore(logger, cfg.TokenPath)
	flow := auth.NewFlow(logger, cfg.ClientSecretPath, consent)
	return auth.NewManager(logger, store, flow, cfg.Scopes)
}

// loadConfig builds the run configuration: defaults, then the config file, then the
// environment, then explicitly set flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	configCtx, _ := flagContext(c, "config")
	cfg, err := config.Load(configCtx.String("config"))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	setString := func(dst *string, name string) {
		if fc, ok := flagContext(c, name); ok {
			*dst = fc.String(name)
		}
	}
	setString(&cfg.ClientSecretPath, "credentials")
	setString(&cfg.TokenPath, "token")
	setString(&cfg.LogLevel, "log-level")
	setString(&cfg.CallbackAddr, "callback-addr")
	setString(&cfg.Calendar, "calendar")
	setString(&cfg.TimeZone, "timezone")
	setString(&cfg.ICSOut, "ics-out")
	if fc, ok := flagContext(c, "auth-timeout"); ok {
		cfg.ConsentTimeout = fc.Duration("auth-timeout")
	}
	if fc, ok := flagContext(c, "no-browser"); ok {
		cfg.NoBrowser = fc.Bool("no-browser")
	}
	if fc, ok := flagContext(c, "caldav"); ok {
		cfg.CalDAV.Enabled = fc.Bool("caldav")
	}

	cfg.ClientSecretPath = config.ResolveClientSecretPath(cfg.ClientSecretPath)
	cfg.Scopes = google.DefaultScopes
	cfg.Event.CalendarID = cfg.Calendar
	cfg.Event.Summary = c.String("summary")
	cfg.Event.Location = c.String("location")
	cfg.Event.Description = c.String("description")
	cfg.Event.Start = c.String("start")
	cfg.Event.End = c.String("end")
	cfg.Event.TimeZone = cfg.TimeZone
	return cfg, nil
}

// flagContext returns the innermost context in which name was set, so common flags
// apply whether they are given before or after the subcommand.
func flagContext(c *cli.Context, name string) (*cli.Context, bool) {
	for _, fc := range c.Lineage() {
		if fc.IsSet(name) {
			return fc, true
		}
	}
	return c, false
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
