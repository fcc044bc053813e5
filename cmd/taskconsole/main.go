// Command taskconsole is the admin console for users and tasks.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/florianilch/taskconsole/cmd/taskconsole/commands"
	"github.com/florianilch/taskconsole/internal/api"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := commands.Execute(ctx, os.Args)
	switch {
	case err == nil:
		return
	case errors.Is(err, api.ErrSessionExpired):
		fmt.Fprintf(os.Stderr, "%v\nrun 'taskconsole login' to sign in\n", err)
	default:
		fmt.Fprintf(os.Stderr, "operation failed: %v\n", err)
	}
	stop()
	os.Exit(1)
}
