package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/horae/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the horae server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr: svc.cfg.HTTPAddr,
		Handler: httpapi.NewServer(
			svc.pipeline, svc.sessions, svc.resched,
			svc.hub, svc.pusher, svc.schedules, svc.log,
		).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go runTicker(ctx, svc)

	errCh := make(chan error, 1)
	go func() {
		svc.log.Info("listening", "addr", svc.cfg.HTTPAddr, "db", svc.cfg.DBPath)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		svc.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

// runTicker drives the time-based housekeeping: checkout escalation and
// sweeping expired reschedule suggestions.
func runTicker(ctx context.Context, svc *services) {
	ticker := time.NewTicker(svc.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, svc.cfg.TickInterval)
			if err := svc.escalator.Tick(tickCtx); err != nil {
				svc.log.Error("escalation tick failed", "error", err)
			}
			if n, err := svc.resched.ExpireOld(tickCtx); err != nil {
				svc.log.Error("suggestion expiry failed", "error", err)
			} else if n > 0 {
				svc.log.Info("expired stale suggestions", "count", n)
			}
			cancel()
		}
	}
}
