package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rbright/soundpp/internal/audio"
	"github.com/rbright/soundpp/internal/config"
	"github.com/rbright/soundpp/internal/desktop"
	"github.com/rbright/soundpp/internal/host"
	"github.com/rbright/soundpp/internal/hotkey"
	"github.com/rbright/soundpp/internal/hypr"
	"github.com/rbright/soundpp/internal/indicator"
	"github.com/rbright/soundpp/internal/ipc"
	"github.com/rbright/soundpp/internal/library"
	"github.com/rbright/soundpp/internal/version"
)

func (r Runner) commandServe(ctx context.Context, paths config.Paths, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{ProbeTimeout: probeTimeout, Retries: 8, Logger: logger})
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: soundpp host already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	exe, err := os.Executable()
	if err != nil {
		exe = "soundpp"
	}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	registry := hotkey.NewRegistry(hypr.Binder{Exe: exe}, logger)
	svc, _ := buildService(paths, logger, registry, cancel)

	fmt.Fprintf(r.Stdout, "listening on %s\n", socketPath)
	if err := host.Run(serveCtx, listener, svc); err != nil {
		fmt.Fprintf(r.Stderr, "error: host failed: %v\n", err)
		logger.Error("host failed", "error", err.Error())
		return 1
	}
	return 0
}

// localHost is an in-process service used when no host is listening.
type localHost struct {
	svc    *host.Service
	player *audio.Player
}

// openLocal builds the service and sweeps orphans the way a host does at
// startup, since every library load is followed by a sweep.
func openLocal(ctx context.Context, paths config.Paths, logger *slog.Logger) *localHost {
	svc, player := buildService(paths, logger, nil, nil)
	if _, err := svc.Sweep(ctx); err != nil {
		logger.Warn("sweep after load failed", "error", err.Error())
	}
	return &localHost{svc: svc, player: player}
}

func (l *localHost) close() {
	l.player.Stop()
	l.svc.Broker().Close()
}

// buildService loads settings and the library and wires the adapters. A
// nil registry leaves global shortcuts to a running host.
func buildService(paths config.Paths, logger *slog.Logger, registry *hotkey.Registry, shutdown func()) (*host.Service, *audio.Player) {
	loaded, err := config.Load(paths)
	if err != nil {
		logger.Warn("load settings failed; using defaults", "path", loaded.Path, "error", err.Error())
	} else {
		logger.Debug("settings loaded", "path", loaded.Path, "source", loaded.Source)
	}

	store, err := library.Open(paths, library.Options{Logger: logger, Slicer: audio.WAVSlicer{}})
	if err != nil {
		logger.Warn("load library failed; starting empty", "path", paths.LibraryPath(), "error", err.Error())
	}

	launcher := desktop.NewLauncher(logger)
	if argv, err := config.OpenCommand(); err != nil {
		logger.Warn("ignoring open command", "error", err.Error())
	} else if len(argv) > 0 {
		launcher.OpenArgv = argv
	}

	player := audio.NewPlayer(audio.PlayerOptions{Volume: loaded.Settings.DefaultVolume, Logger: logger})
	svc := host.New(host.Options{
		Paths:    paths,
		Store:    store,
		Settings: loaded.Settings,
		Registry: registry,
		Player:   player,
		Notifier: indicator.New(indicatorOptions(), logger),
		Launcher: launcher,
		Version:  version.Version,
		Timeout:  recordTimeout(),
		Logger:   logger,
		Shutdown: shutdown,
	})
	return svc, player
}

// indicatorOptions reads SOUNDPP_NOTIFY (hypr, desktop, off) and
// SOUNDPP_CUES (off disables the recording sounds).
func indicatorOptions() indicator.Options {
	opts := indicator.DefaultOptions()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SOUNDPP_NOTIFY"))) {
	case indicator.BackendDesktop:
		opts.Backend = indicator.BackendDesktop
	case "off", "none", "false", "0":
		opts.Enable = false
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SOUNDPP_CUES"))) {
	case "off", "false", "0":
		opts.SoundEnable = false
	}
	return opts
}

// recordTimeout reads SOUNDPP_RECORD_TIMEOUT as a Go duration; zero keeps
// the recorder default.
func recordTimeout() time.Duration {
	raw := strings.TrimSpace(os.Getenv("SOUNDPP_RECORD_TIMEOUT"))
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}
