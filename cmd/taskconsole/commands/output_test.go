package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/taskconsole/internal/resources"
)

func TestPrompterReadsPipedLinesInOrder(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"trailing newline", "admin\nsecret1\n"},
		{"no trailing newline", "admin\nsecret1"},
		{"windows line endings", "admin\r\nsecret1\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prompts bytes.Buffer
			cmd := &cli.Command{Reader: strings.NewReader(tt.input), ErrWriter: &prompts}
			p := newPrompter(cmd)

			username, err := p.prompt("username", false)
			require.NoError(t, err)
			password, err := p.prompt("password", true)
			require.NoError(t, err)

			assert.Equal(t, "admin", username)
			assert.Equal(t, "secret1", password)
			assert.Equal(t, "username: password: ", prompts.String())
		})
	}
}

func TestPrompterReportsExhaustedInput(t *testing.T) {
	cmd := &cli.Command{Reader: strings.NewReader("admin\n"), ErrWriter: &bytes.Buffer{}}
	p := newPrompter(cmd)

	_, err := p.prompt("username", false)
	require.NoError(t, err)
	_, err = p.prompt("password", true)
	assert.ErrorContains(t, err, "reading password")
}

func TestRender(t *testing.T) {
	user := resources.User{ID: 7, Username: "alice", Nickname: "Al"}

	tests := []struct {
		format string
		want   []string
	}{
		{"json", []string{`"id": 7`, `"username": "alice"`}},
		{"yaml", []string{"id: 7", "username: alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var out bytes.Buffer
			root := rootCommand()
			root.Writer = &out
			for _, sub := range root.Commands {
				sub.Action = func(_ context.Context, cmd *cli.Command) error {
					return render(cmd, user)
				}
			}

			require.NoError(t, root.Run(t.Context(), []string{"taskconsole", "--output", tt.format, "profile"}))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestTaskUpdateRequiresStatus(t *testing.T) {
	window := []string{"--started-at", "2025-03-01T09:00:00Z", "--ended-at", "2025-03-01T10:00:00Z"}

	run := func(args ...string) (bool, error) {
		var ran bool
		root := rootCommand()
		root.ErrWriter = &bytes.Buffer{}
		root.Writer = &bytes.Buffer{}
		for _, sub := range root.Commands {
			for _, leaf := range sub.Commands {
				leaf.Action = func(context.Context, *cli.Command) error {
					ran = true
					return nil
				}
			}
		}
		err := root.Run(t.Context(), append([]string{"taskconsole", "tasks"}, args...))
		return ran, err
	}

	ran, err := run(append([]string{"update", "--id", "3", "--user-id", "1", "--task-name", "report"}, window...)...)
	require.Error(t, err)
	assert.False(t, ran)

	ran, err = run(append([]string{"update", "--id", "3", "--user-id", "1", "--task-name", "report", "--status", "done"}, window...)...)
	require.NoError(t, err)
	assert.True(t, ran)

	ran, err = run(append([]string{"create", "--user-id", "1", "--task-name", "report"}, window...)...)
	require.NoError(t, err)
	assert.True(t, ran)
}
