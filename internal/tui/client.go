package tui

import (
	"context"
	"errors"

	"github.com/rbright/soundpp/internal/ipc"
)

// Client carries commands to a host, remote or in-process.
type Client interface {
	Call(ctx context.Context, command string, params any) (ipc.Response, error)
	Events(ctx context.Context) (<-chan ipc.Event, error)
}

// errCanceled marks a command the host answered with canceled=true.
var errCanceled = errors.New("canceled")

// call runs command and decodes a successful response into out (when non-nil).
func call(ctx context.Context, c Client, command string, params, out any) error {
	resp, err := c.Call(ctx, command, params)
	if err != nil {
		return err
	}
	if resp.Canceled {
		return errCanceled
	}
	if !resp.OK {
		return errors.New(resp.Error)
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}
