package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-projects/internal/app"
	"github.com/noah-isme/gema-projects/internal/config"
)

type rootOptions struct {
	apiURL      string
	storage     string
	storagePath string
	logLevel    string
}

// cli carries what every subcommand needs once the root has run.
type cli struct {
	opts   rootOptions
	cfg    config.Config
	app    *app.App
	logger zerolog.Logger
	out    io.Writer
	errOut io.Writer
}

func newRootCommand() (*cobra.Command, *cli) {
	c := &cli{out: os.Stdout, errOut: os.Stderr}

	root := &cobra.Command{
		Use:           "gema-projects",
		Short:         "Submit and evaluate course projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.printWhoami(cmd)
		},
	}

	root.SetOut(c.out)
	root.SetErr(c.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.apiURL, "api-url", "", "collaborator API base URL (overrides GEMA_API_BASE_URL)")
	flags.StringVar(&c.opts.storage, "storage", "", "session storage driver: bolt, redis or memory")
	flags.StringVar(&c.opts.storagePath, "storage-path", "", "bolt session file path")
	flags.StringVar(&c.opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newLoginCommand(c),
		newSignupCommand(c),
		newLogoutCommand(c),
		newWhoamiCommand(c),
		newCoursesCommand(c),
		newSubmissionsCommand(c),
		newSubmitCommand(c),
		newBoardCommand(c),
		newStatsCommand(c),
		newEvaluateCommand(c),
		newExportCommand(c),
	)

	return root, c
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if c.opts.apiURL != "" {
		cfg.APIBaseURL = strings.TrimRight(c.opts.apiURL, "/")
	}
	if c.opts.storage != "" {
		cfg.Storage.Driver = strings.ToLower(c.opts.storage)
	}
	if c.opts.storagePath != "" {
		cfg.Storage.Path = c.opts.storagePath
	}
	if c.opts.logLevel != "" {
		cfg.LogLevel = c.opts.logLevel
	}
	c.cfg = cfg

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.WarnLevel
	}
	c.logger = zerolog.New(zerolog.ConsoleWriter{Out: c.errOut, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Str("app", cfg.AppName).
		Logger()

	a, err := app.New(cfg, c.logger)
	if err != nil {
		return err
	}
	c.app = a
	c.app.Start(cmd.Context())
	return nil
}

// finish reports notifications and the command error, then releases storage.
func (c *cli) finish(err error) {
	c.flushNotifications()
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(c.errOut, "Error:", presentError(err))
	}
	if c.app != nil {
		if closeErr := c.app.Close(); closeErr != nil {
			c.logger.Warn().Err(closeErr).Msg("failed to close session storage")
		}
	}
}
