package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liferaft/liferaft/core"
	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/internal/notify"
	"github.com/liferaft/liferaft/internal/proxy"
	"github.com/liferaft/liferaft/internal/registry"
	"github.com/spf13/cobra"
)

// shutdownGrace bounds how long in-flight requests may finish after a
// termination signal.
const shutdownGrace = 10 * time.Second

// buildService assembles the full interception stack from the validated
// configuration and the global store manager.
func buildService() (*proxy.Server, *proxy.ClientHub) {
	fetcher := proxy.NewFetcher(0)
	hub := proxy.NewClientHub()
	notifier := notify.NewConsoleNotifier(cfg.UseColors)

	reg := registry.Manager.GetRegistry()
	ob := registry.Manager.GetOutbox()

	svc := core.NewService(cfg, reg, ob, fetcher, notifier, hub)
	return proxy.NewServer(cfg, svc, ob, hub), hub
}

// serveCmd runs the interception proxy.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the offline-first interception proxy",
	Long: `Start the proxy in front of the configured origin.

On startup the proxy performs the deployment handshake:
  install  - fetch the precache manifest into the current asset store
  activate - evict stores from previous versions, claim connected clients

Then it serves traffic:
- Static assets serve cache-first and survive origin outages
- API reads serve network-first with snapshot fallback
- API writes that fail offline queue in the outbox for replay
- Dev tooling channels and capability URLs pass through untouched

Control endpoints (never intercepted):
  /-/healthz            - liveness probe
  /-/events             - client control channel (SSE)
  /-/push               - POST a push payload to display a notification
  /-/notification-click - POST id/action for a displayed notification
  /-/sync               - POST to replay queued submissions now

Examples:
  # Front a local dev server
  liferaft serve --origin http://localhost:8080

  # New release: bump the asset version so old precache is evicted
  liferaft serve --origin http://localhost:8080 --asset-version 2`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		server, _ := buildService()

		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Installing precache manifest (%d entries, %d workers)...\n", len(cfg.Manifest), cfg.Workers)
		if err := server.Lifecycle(ctx); err != nil {
			return err
		}
		fmt.Printf("Serving %s in front of %s\n", cfg.ListenAddr, cfg.Origin)

		httpServer := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           server,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("proxy failed: %w", err)
		case <-ctx.Done():
		}

		fmt.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			contract.LogWarn("graceful shutdown incomplete", err)
		}
		return nil
	},
}
