package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/taskconsole/internal/api"
	"github.com/florianilch/taskconsole/internal/app"
	"github.com/florianilch/taskconsole/internal/session"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "account name (prompted when omitted)",
			},
			&cli.StringFlag{
				Name:  "password",
				Usage: "account password (prompted without echo when omitted)",
			},
		},
		Action: appAction(loginAction),
	}
}

func loginAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	creds := api.Credentials{
		Username: cmd.String("username"),
		Password: cmd.String("password"),
	}

	p := newPrompter(cmd)
	var err error
	if creds.Username == "" {
		if creds.Username, err = p.prompt("username", false); err != nil {
			return err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = p.prompt("password", true); err != nil {
			return err
		}
	}

	if _, err := a.API.Login(ctx, creds); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "logged in as %s\n", creds.Username)
	return nil
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "end the session and forget the stored tokens",
		Action: appAction(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			if err := a.API.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, "logged out")
			return nil
		}),
	}
}

// sessionStatus describes the stored session without contacting the backend.
type sessionStatus struct {
	Authenticated bool       `json:"authenticated" yaml:"authenticated"`
	AccessExpiry  *time.Time `json:"access_expires_at,omitempty" yaml:"access_expires_at,omitempty"`
	AccessExpired bool       `json:"access_expired" yaml:"access_expired"`
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "show whether a session is stored and when its access token expires",
		Action: appAction(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			return render(cmd, describeSession(a.Session.Get(), time.Now()))
		}),
	}
}

func describeSession(token *session.Token, now time.Time) sessionStatus {
	if token == nil {
		return sessionStatus{}
	}
	status := sessionStatus{Authenticated: true}

	if expiry, ok := token.AccessExpiry(); ok {
		status.AccessExpiry = &expiry
		status.AccessExpired = !now.Before(expiry)
	}
	return status
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "show the signed-in account",
		Action: appAction(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			user, err := a.Users.Profile(ctx)
			if err != nil {
				return err
			}
			return render(cmd, user)
		}),
	}
}
