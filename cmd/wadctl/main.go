package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/arnavsurve/wadctl/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// After the first signal cancels any running WinAppDeployCmd, restore the
	// default handler so a second Ctrl+C exits at once.
	go func() {
		<-ctx.Done()
		stop()
	}()

	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	if err := cli.Execute(ctx, version, args); err != nil {
		fmt.Fprintln(stderr, "✗", err)
		return 1
	}
	return 0
}
