package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/taskconsole/internal/app"
	"github.com/florianilch/taskconsole/internal/devserver"
)

func devServerCommand() *cli.Command {
	return &cli.Command{
		Name:  "devserver",
		Usage: "run an in-memory backend for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "devserver--host",
				Usage: "listen host",
				Value: app.DefaultConfigDevServerHost,
			},
			&cli.IntFlag{
				Name:  "devserver--port",
				Usage: "listen port",
				Value: app.DefaultConfigDevServerPort,
			},
			&cli.DurationFlag{
				Name:  "devserver--access-ttl",
				Usage: "access token lifetime",
				Value: devserver.DefaultAccessTTL,
			},
			&cli.DurationFlag{
				Name:  "devserver--refresh-ttl",
				Usage: "refresh token lifetime",
				Value: devserver.DefaultRefreshTTL,
			},
			&cli.StringFlag{
				Name:  "devserver--admin-username",
				Usage: "seeded admin account",
				Value: app.DefaultConfigDevServerAdmin,
			},
			&cli.StringFlag{
				Name:  "devserver--admin-password",
				Usage: "seeded admin password (generated and logged when empty)",
			},
		},
		Action: devServerAction,
	}
}

func devServerAction(ctx context.Context, cmd *cli.Command) error {
	cfg, cleanup, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	slog.InfoContext(ctx, "starting")

	if err := app.Serve(ctx, cfg); err != nil {
		return fmt.Errorf("dev server failed: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}
