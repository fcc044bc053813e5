package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/taskconsole/internal/app"
	"github.com/florianilch/taskconsole/internal/resources"
)

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "manage user accounts",
		Commands: []*cli.Command{
			{
				Name:  "all",
				Usage: "list every user",
				Action: appAction(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					users, err := a.Users.All(ctx)
					if err != nil {
						return err
					}
					return render(cmd, users)
				}),
			},
			{
				Name:  "list",
				Usage: "list users page by page",
				Flags: append(pagingFlags(),
					&cli.StringFlag{Name: "nickname", Usage: "only users whose nickname contains this"},
				),
				Action: appAction(listUsersAction),
			},
			{
				Name:  "create",
				Usage: "create a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "nickname", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "avatar", Usage: "avatar URL"},
					&cli.StringFlag{Name: "password", Usage: "initial password (prompted without echo when omitted)"},
				},
				Action: appAction(createUserAction),
			},
			{
				Name:  "update",
				Usage: "change a user's nickname and avatar",
				Flags: []cli.Flag{
					idFlag(),
					&cli.StringFlag{Name: "nickname", Required: true},
					&cli.StringFlag{Name: "avatar", Usage: "avatar URL"},
				},
				Action: appAction(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					user, err := a.Users.Update(ctx, resources.UpdateUserRequest{
						ID:       cmd.Int64("id"),
						Nickname: cmd.String("nickname"),
						Avatar:   cmd.String("avatar"),
					})
					if err != nil {
						return err
					}
					return render(cmd, user)
				}),
			},
			{
				Name:  "delete",
				Usage: "delete a user",
				Flags: []cli.Flag{idFlag()},
				Action: appAction(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					if err := a.Users.Delete(ctx, cmd.Int64("id")); err != nil {
						return err
					}
					fmt.Fprintf(cmd.Root().Writer, "deleted user %d\n", cmd.Int64("id"))
					return nil
				}),
			},
		},
	}
}

func listUsersAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	params := resources.ListUsersParams{
		Page:     cmd.Int("page"),
		PageSize: cmd.Int("page-size"),
	}
	if cmd.IsSet("nickname") {
		nickname := cmd.String("nickname")
		params.Nickname = &nickname
	}

	page, err := a.Users.List(ctx, params)
	if err != nil {
		return err
	}
	return render(cmd, page)
}

func createUserAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	password := cmd.String("password")
	if password == "" {
		var err error
		if password, err = newPrompter(cmd).prompt("password", true); err != nil {
			return err
		}
	}

	user, err := a.Users.Create(ctx, resources.CreateUserRequest{
		Username: cmd.String("username"),
		Nickname: cmd.String("nickname"),
		Password: password,
		Email:    cmd.String("email"),
		Avatar:   cmd.String("avatar"),
	})
	if err != nil {
		return err
	}
	return render(cmd, user)
}

func pagingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "page", Value: 1, Usage: "1-based page number"},
		&cli.IntFlag{Name: "page-size", Value: 10, Usage: "items per page (max 100)"},
	}
}

func idFlag() cli.Flag {
	return &cli.Int64Flag{Name: "id", Required: true}
}
