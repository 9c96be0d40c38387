// Command soundpp is the soundboard host, CLI, and terminal UI.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rbright/soundpp/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), app.ShutdownSignals...)
	code := app.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
