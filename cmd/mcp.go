package cmd

import (
	"github.com/liferaft/liferaft/internal/mcp"
	"github.com/liferaft/liferaft/internal/proxy"
	"github.com/liferaft/liferaft/internal/registry"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Liferaft MCP server",
	Long:  `Launch an MCP server that allows AI agents to inspect and maintain the cache and outbox via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Suppress the normal header logs when running in MCP mode
		// to avoid polluting stdio which is used for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, registry.Manager.GetRegistry(), registry.Manager.GetOutbox(), proxy.NewFetcher(0))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
