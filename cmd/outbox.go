package cmd

import (
	"fmt"
	"os"

	"github.com/liferaft/liferaft/core"
	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/internal/proxy"
	"github.com/liferaft/liferaft/internal/registry"
	"github.com/liferaft/liferaft/internal/render"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// outboxCmd focused on the deferred submission queue.
//
// Subcommands use the same minimal initialization as the cache
// commands; origin and manifest settings are not needed to inspect the
// queue. Only drain contacts the origin.
var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Manage queued offline submissions",
	Long: `Manage the outbox of mutating requests that failed while offline.

When a POST, PUT, PATCH or DELETE cannot reach the origin, the proxy
stores it in the outbox and replays it on the next reconnect signal.
Each task carries an idempotency key so a replay racing a successful
original cannot apply twice.

Subcommands:
  status - Show queue depth and age range
  list   - Show queued submissions
  drain  - Replay queued submissions against the origin now

Examples:
  # Check how many submissions are waiting
  liferaft outbox status

  # Replay up to 10 submissions
  liferaft outbox drain --outbox-limit 10`,
}

// outboxStatusCmd shows queue depth.
var outboxStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display queue depth and age range",
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := registry.Manager.GetOutbox().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get outbox status", err)
		}
		if err := render.PrintOutboxStatus(os.Stdout, status, cfg.UseColors); err != nil {
			contract.LogFatal("Failed to print outbox status", err)
		}
	},
}

// outboxListCmd lists queued tasks.
var outboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued submissions in enqueue order",
	Long: `Show queued submissions as a table.

Displays method, URL, attempt count, queue time and the last replay
error per task. URLs are truncated to the terminal width; use --width
to override the detected width.

Examples:
  # Show the queue
  liferaft outbox list

  # Show more tasks on a wide terminal
  liferaft outbox list --outbox-limit 100 --width 120`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		tasks, err := registry.Manager.GetOutbox().ListReady(viper.GetInt("outbox-limit"))
		if err != nil {
			contract.LogFatal("Failed to list queued submissions", err)
		}
		urlWidth := render.GetMaxTableURLWidth(viper.GetInt("width"))
		if err := render.PrintOutboxTasks(os.Stdout, tasks, urlWidth); err != nil {
			contract.LogFatal("Failed to print queued submissions", err)
		}
	},
}

// outboxDrainCmd replays queued tasks.
var outboxDrainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Replay queued submissions against the origin",
	Long: `Replay queued submissions in enqueue order.

Tasks the origin accepts (or permanently rejects with a 4xx) are
removed. Tasks that still cannot reach the origin stay queued with
their failure recorded. The serve command triggers the same drain on a
POST to /-/sync; this command exists for scripted recovery.

Examples:
  # Replay everything up to the default limit
  liferaft outbox drain

  # Replay against a non-default origin
  LIFERAFT_ORIGIN=http://localhost:9000 liferaft outbox drain`,
	PreRunE: cacheSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		drainer := &core.Drainer{
			Outbox:  registry.Manager.GetOutbox(),
			Fetcher: proxy.NewFetcher(0),
			Limit:   viper.GetInt("outbox-limit"),
		}
		settled, err := drainer.Drain(rootCtx)
		if err != nil {
			return err
		}
		fmt.Printf("Replayed %d queued submissions\n", settled)
		return nil
	},
}
