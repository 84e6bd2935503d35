package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/asynkron/spatch/internal/cli"
)

// main splits the patches named on the command line, or standard input.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
