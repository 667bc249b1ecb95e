package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/polyarb/internal/server"
	"github.com/alejandrodnm/polyarb/internal/server/handler"
)

func runLoop(ctx context.Context, a *app) error {
	sc, err := a.scanner(ctx)
	if err != nil {
		return err
	}
	if err := sc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("polyarb stopped")
	return nil
}

func runOnce(ctx context.Context, a *app) error {
	sc, err := a.scanner(ctx)
	if err != nil {
		return err
	}
	res, err := sc.RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.console.Out(), "run %s: events=%d pairs=%d dependent=%d opportunities=%d queued=%d executed=%d dropped=%d\n",
		res.RunID, res.Events, res.Pairs, res.Dependent, len(res.Opportunities), len(res.Queued), len(res.Executed), res.Dropped)

	items, err := a.queue.List(ctx, true)
	if err != nil {
		return err
	}
	a.console.PrintQueue(items)
	return nil
}

// serve levanta la API y, si hay API key del LLM, el loop del pipeline en paralelo.
func serve(ctx context.Context, a *app) error {
	logger := slog.Default()
	srv := server.NewServer(server.Config{Addr: a.cfg.Server.Addr}, server.Handlers{
		Health:     handler.NewHealthHandler(),
		Queue:      handler.NewQueueHandler(a.queue, a.executor, logger),
		Mode:       handler.NewModeHandler(a.modes, logger),
		Config:     handler.NewConfigHandler(a.risk, a.monitor.Thresholds(), logger),
		Monitoring: handler.NewMonitoringHandler(a.monitor, a.store, logger),
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	sc, err := a.scanner(ctx)
	if err != nil {
		slog.Warn("pipeline disabled, serving API only", "err", err)
	} else {
		g.Go(func() error {
			if err := sc.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("polyarb stopped")
	return nil
}
