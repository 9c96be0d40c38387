package host

import (
	"context"
	"errors"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/soundpp/internal/ipc"
)

// Run performs startup work, then serves listener until ctx ends or a
// quit command arrives. Shortcuts are unregistered before it returns.
func Run(ctx context.Context, listener net.Listener, svc *Service) error {
	applied := svc.Startup(ctx)
	svc.logger.Info("host started",
		"registered", applied.Registered,
		"failed", len(applied.Failed),
		"sounds_dir", svc.paths.SoundsDir(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ipc.Serve(gctx, listener, svc)
	})
	g.Go(func() error {
		if err := svc.FillDurations(gctx); err != nil && !errors.Is(err, context.Canceled) {
			svc.logger.Warn("duration probing failed", "error", err.Error())
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		svc.Quit(cleanupCtx)
		svc.broker.Close()
		return nil
	})

	err := g.Wait()
	svc.logger.Info("host stopped")
	return err
}
