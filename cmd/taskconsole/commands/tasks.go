package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/taskconsole/internal/app"
	"github.com/florianilch/taskconsole/internal/resources"
)

func tasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "manage tasks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list tasks page by page",
				Flags: append(pagingFlags(),
					&cli.Int64Flag{Name: "user-id", Usage: "only tasks of this user"},
					&cli.StringFlag{Name: "task-name", Usage: "only tasks whose name contains this"},
					&cli.StringFlag{Name: "started-at", Usage: "only tasks started at or after this time (RFC 3339)"},
					&cli.StringFlag{Name: "ended-at", Usage: "only tasks ended at or before this time (RFC 3339)"},
					&cli.StringFlag{Name: "status", Usage: "done|in_progress|not_started|abandoned"},
				),
				Action: appAction(listTasksAction),
			},
			{
				Name:   "create",
				Usage:  "create a task",
				Flags:  taskFlags(false),
				Action: appAction(createTaskAction),
			},
			{
				Name:   "update",
				Usage:  "replace a task",
				Flags:  append([]cli.Flag{idFlag()}, taskFlags(true)...),
				Action: appAction(updateTaskAction),
			},
			{
				Name:  "delete",
				Usage: "delete a task",
				Flags: []cli.Flag{idFlag()},
				Action: appAction(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					if err := a.Tasks.Delete(ctx, cmd.Int64("id")); err != nil {
						return err
					}
					fmt.Fprintf(cmd.Root().Writer, "deleted task %d\n", cmd.Int64("id"))
					return nil
				}),
			},
		},
	}
}

// taskFlags describes a full task. An update replaces every field, so it
// must name the status instead of falling back to not_started.
func taskFlags(update bool) []cli.Flag {
	status := &cli.StringFlag{Name: "status", Usage: "done|in_progress|not_started|abandoned"}
	if update {
		status.Required = true
	} else {
		status.Value = string(resources.TaskStatusNotStarted)
	}

	return []cli.Flag{
		&cli.Int64Flag{Name: "user-id", Required: true},
		&cli.StringFlag{Name: "task-name", Required: true},
		&cli.StringFlag{Name: "started-at", Required: true, Usage: "RFC 3339 time"},
		&cli.StringFlag{Name: "ended-at", Required: true, Usage: "RFC 3339 time"},
		status,
	}
}

func listTasksAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	params := resources.ListTasksParams{
		Page:     cmd.Int("page"),
		PageSize: cmd.Int("page-size"),
	}
	if cmd.IsSet("user-id") {
		userID := cmd.Int64("user-id")
		params.UserID = &userID
	}
	if cmd.IsSet("task-name") {
		name := cmd.String("task-name")
		params.TaskName = &name
	}
	if cmd.IsSet("status") {
		status := resources.TaskStatus(cmd.String("status"))
		params.Status = &status
	}

	var err error
	if params.StartedAt, err = optionalTime(cmd, "started-at"); err != nil {
		return err
	}
	if params.EndedAt, err = optionalTime(cmd, "ended-at"); err != nil {
		return err
	}

	page, err := a.Tasks.List(ctx, params)
	if err != nil {
		return err
	}
	return render(cmd, page)
}

func createTaskAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	startedAt, endedAt, err := taskWindow(cmd)
	if err != nil {
		return err
	}

	task, err := a.Tasks.Create(ctx, resources.CreateTaskRequest{
		UserID:    cmd.Int64("user-id"),
		TaskName:  cmd.String("task-name"),
		StartedAt: startedAt,
		EndedAt:   endedAt,
		Status:    resources.TaskStatus(cmd.String("status")),
	})
	if err != nil {
		return err
	}
	return render(cmd, task)
}

func updateTaskAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	startedAt, endedAt, err := taskWindow(cmd)
	if err != nil {
		return err
	}

	task, err := a.Tasks.Update(ctx, resources.UpdateTaskRequest{
		ID:        cmd.Int64("id"),
		UserID:    cmd.Int64("user-id"),
		TaskName:  cmd.String("task-name"),
		StartedAt: startedAt,
		EndedAt:   endedAt,
		Status:    resources.TaskStatus(cmd.String("status")),
	})
	if err != nil {
		return err
	}
	return render(cmd, task)
}

func taskWindow(cmd *cli.Command) (startedAt, endedAt time.Time, err error) {
	if startedAt, err = parseTime(cmd, "started-at"); err != nil {
		return
	}
	endedAt, err = parseTime(cmd, "ended-at")
	return
}

func optionalTime(cmd *cli.Command, name string) (*time.Time, error) {
	if !cmd.IsSet(name) {
		return nil, nil
	}
	t, err := parseTime(cmd, name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseTime(cmd *cli.Command, name string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, cmd.String(name))
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}
