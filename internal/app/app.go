// Package app runs one parsed soundpp invocation: it wires the stores and
// adapters, forwards requests to a running host, and maps outcomes to exit
// codes (0 ok, 1 runtime failure, 2 usage).
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rbright/soundpp/internal/audio"
	"github.com/rbright/soundpp/internal/cli"
	"github.com/rbright/soundpp/internal/config"
	"github.com/rbright/soundpp/internal/doctor"
	"github.com/rbright/soundpp/internal/logging"
	"github.com/rbright/soundpp/internal/tui"
	"github.com/rbright/soundpp/internal/version"
)

// ShutdownSignals end the invocation. SIGHUP is included because a host
// started from the compositor's autostart is hung up when the session ends,
// and it must still unbind its global shortcuts.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText())
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, parsed.Help)
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(r.Stderr, "warning: load .env: %v\n", err)
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	paths, err := config.ResolvePaths(logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("resolve paths failed", "error", err.Error())
		return 1
	}

	logger.Info("command start",
		"command", parsed.Command,
		"request", parsed.Request.Command,
		"data_dir", paths.UserDataDir,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		return r.commandDoctor(ctx, paths)
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandServe:
		return r.commandServe(ctx, paths, logger)
	case cli.CommandTUI:
		return r.commandTUI(ctx, paths, logger, tui.Options{})
	case cli.CommandRecord:
		return r.commandTUI(ctx, paths, logger, tui.Options{RecordItem: parsed.RecordID})
	case cli.CommandRequest:
		return r.commandRequest(ctx, paths, logger, parsed)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDoctor(ctx context.Context, paths config.Paths) int {
	loaded, err := config.Load(paths)
	if err != nil {
		fmt.Fprintf(r.Stderr, "warning: %v\n", err)
	}
	report := doctor.Run(ctx, paths, loaded)
	fmt.Fprintln(r.Stdout, report.String())
	if report.OK() {
		return 0
	}
	return 1
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListSinks(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			yesNo(device.Available),
			yesNo(device.Muted),
		)
	}

	return 0
}

func (r Runner) commandTUI(ctx context.Context, paths config.Paths, logger *slog.Logger, opts tui.Options) int {
	client, closeClient := r.connect(ctx, paths, logger)
	defer closeClient()

	if err := tui.Run(ctx, client, opts); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("tui failed", "error", err.Error())
		return 1
	}
	return 0
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
