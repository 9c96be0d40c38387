package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/soundpp/internal/cli"
	"github.com/rbright/soundpp/internal/config"
	"github.com/rbright/soundpp/internal/host"
	"github.com/rbright/soundpp/internal/ipc"
	"github.com/rbright/soundpp/internal/tui"
)

const (
	probeTimeout   = 220 * time.Millisecond
	requestTimeout = 30 * time.Second
)

// hostOnly commands act on runtime state that exists only inside a host.
var hostOnly = map[string]bool{
	host.CmdStop:       true,
	host.CmdToggleMute: true,
	host.CmdSetVolume:  true,
	host.CmdTrigger:    true,
	host.CmdQuit:       true,
}

func (r Runner) commandRequest(ctx context.Context, paths config.Paths, logger *slog.Logger, parsed cli.Parsed) int {
	req := parsed.Request
	if parsed.PayloadFile != "" {
		data, err := os.ReadFile(parsed.PayloadFile)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: read %s: %v\n", parsed.PayloadFile, err)
			return 1
		}
		req.Params = data
	}

	if socketPath, err := ipc.RuntimeSocketPath(); err == nil {
		resp, handled, err := tryForward(ctx, socketPath, req)
		if handled {
			return r.finish(parsed, resp, err)
		}
	} else {
		logger.Debug("runtime socket unavailable", "error", err.Error())
	}

	if hostOnly[req.Command] {
		fmt.Fprintln(r.Stderr, "error: no running soundpp host")
		return 1
	}

	local := openLocal(ctx, paths, logger)
	defer local.close()

	code := r.finish(parsed, local.svc.Handle(ctx, req), nil)
	if code == 0 && req.Command == host.CmdPlay && parsed.Wait {
		if err := local.player.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
	}
	return code
}

// finish prints a response and returns the exit code.
func (r Runner) finish(parsed cli.Parsed, resp ipc.Response, err error) int {
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Canceled {
		fmt.Fprintln(r.Stdout, "canceled")
		return 0
	}
	if !resp.OK {
		fmt.Fprintf(r.Stderr, "error: %s\n", resp.Error)
		return 1
	}
	if err := render(r.Stdout, parsed, resp); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// tryForward sends req to a running host. handled is false only when
// nobody is listening on socketPath.
func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, requestTimeout)
	if err == nil {
		if resp.OK || resp.Canceled {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.IsUnavailable(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

// connect returns a client for the running host, or an in-process one.
func (r Runner) connect(ctx context.Context, paths config.Paths, logger *slog.Logger) (tui.Client, func()) {
	if socketPath, err := ipc.RuntimeSocketPath(); err == nil {
		alive, probeErr := ipc.Probe(ctx, socketPath, probeTimeout)
		if alive {
			logger.Info("connected to host", "socket", socketPath)
			return remoteClient{socketPath: socketPath}, func() {}
		}
		if probeErr != nil {
			logger.Warn("probe host failed", "error", probeErr.Error())
		}
	}

	local := openLocal(ctx, paths, logger)
	logger.Info("no host running; serving in-process")
	return localClient{svc: local.svc}, local.close
}

type remoteClient struct {
	socketPath string
}

func (c remoteClient) Call(ctx context.Context, command string, params any) (ipc.Response, error) {
	req, err := ipc.NewRequest(command, params)
	if err != nil {
		return ipc.Response{}, err
	}
	return ipc.Send(ctx, c.socketPath, req, requestTimeout)
}

func (c remoteClient) Events(ctx context.Context) (<-chan ipc.Event, error) {
	return ipc.Subscribe(ctx, c.socketPath, probeTimeout)
}

type localClient struct {
	svc *host.Service
}

func (c localClient) Call(ctx context.Context, command string, params any) (ipc.Response, error) {
	req, err := ipc.NewRequest(command, params)
	if err != nil {
		return ipc.Response{}, err
	}
	return c.svc.Handle(ctx, req), nil
}

func (c localClient) Events(ctx context.Context) (<-chan ipc.Event, error) {
	events, cancel := c.svc.Subscribe()
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return events, nil
}
