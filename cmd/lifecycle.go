package cmd

import (
	"fmt"

	"github.com/liferaft/liferaft/core"
	"github.com/spf13/cobra"
)

// lifecycleCmd groups the standalone deployment phases. The serve
// command runs both automatically; these exist for prewarming a cache
// before the proxy starts and for scripted rollouts.
var lifecycleCmd = &cobra.Command{
	Use:   "lifecycle",
	Short: "Run deployment phases against the cache database",
	Long: `Run the install and activate phases without starting the proxy.

install precaches the manifest into the current asset store. It is
all-or-nothing: if any manifest entry fails to fetch, nothing is
written and any previous version keeps serving.

activate evicts every store that does not belong to the current
version set and signals connected clients.

Examples:
  # Prewarm the cache for version 2 before switching traffic
  liferaft lifecycle install --asset-version 2

  # Retire version 1 stores after the switch
  liferaft lifecycle activate --asset-version 2`,
}

// installCmd precaches the manifest.
var installCmd = &cobra.Command{
	Use:     "install",
	Short:   "Precache the manifest into the current asset store",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		server, _ := buildService()
		if err := server.Service.Bus.Dispatch(rootCtx, core.Event{Kind: core.InstallEvent}); err != nil {
			return err
		}
		fmt.Printf("Precached %d manifest entries into %s\n", len(cfg.Manifest), cfg.AssetStoreName())
		return nil
	},
}

// activateCmd evicts stale stores.
var activateCmd = &cobra.Command{
	Use:     "activate",
	Short:   "Evict stores from previous versions",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		server, _ := buildService()
		if err := server.Service.Bus.Dispatch(rootCtx, core.Event{Kind: core.ActivateEvent}); err != nil {
			return err
		}
		fmt.Printf("Active stores: %s, %s\n", cfg.AssetStoreName(), cfg.APIStoreName())
		return nil
	},
}
