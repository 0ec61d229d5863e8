// CLI entry point for compoundrank.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/compoundrank/internal/interfaces/cli"
	"github.com/turtacn/compoundrank/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	os.Exit(errors.ExitCode(err))
}
