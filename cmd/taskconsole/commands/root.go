package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/taskconsole/internal/app"
	"github.com/florianilch/taskconsole/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	return rootCommand().Run(ctx, args)
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:  "taskconsole",
		Usage: "Admin console for users and tasks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "backend--base-url",
				Usage: "backend API base URL",
				Value: app.DefaultConfigBackendBaseURL,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output format (json|yaml)",
				Value:   string(formatJSON),
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			statusCommand(),
			profileCommand(),
			usersCommand(),
			tasksCommand(),
			devServerCommand(),
		},
	}
}

// setup loads the configuration and installs logging for one command run.
// The returned func flushes the log pipeline.
func setup(ctx context.Context, cmd *cli.Command) (*app.Config, func(), error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before creating app
	shutdown, err := observability.Instrument(ctx, observability.Options{
		Level:    cfg.LogLevel,
		Format:   string(cfg.LogFormat),
		Exporter: cfg.Telemetry.Exporter,
		Endpoint: cfg.Telemetry.Endpoint,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	return cfg, func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			fmt.Fprintf(cmd.Root().ErrWriter, "flushing logs: %v\n", err)
		}
	}, nil
}

// appAction runs fn with an App restored from the configured session.
func appAction(fn func(ctx context.Context, cmd *cli.Command, a *app.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, cleanup, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		notices := cmd.Root().ErrWriter
		application, err := app.New(ctx, cfg,
			app.WithNavigator(&cliNavigator{}),
			app.WithSessionExpiredHandler(func(ctx context.Context, err error) {
				slog.DebugContext(ctx, "session expired", "error", err)
				fmt.Fprintln(notices, "login expired, please log in again")
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to create app: %w", err)
		}
		defer func() {
			if err := application.Close(); err != nil {
				slog.WarnContext(ctx, "failed to close app", "error", err)
			}
		}()

		return fn(ctx, cmd, application)
	}
}

// cliNavigator has no views to switch; it records transitions in the log.
type cliNavigator struct{}

func (cliNavigator) ToLogin(ctx context.Context) {
	slog.InfoContext(ctx, "login required")
}

func (cliNavigator) ToHome(ctx context.Context) {
	slog.DebugContext(ctx, "session active")
}
