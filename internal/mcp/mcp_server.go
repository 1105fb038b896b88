// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Liferaft MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, reg contract.Registry, ob contract.Outbox, fetcher contract.Fetcher) *server.MCPServer {
	s := server.NewMCPServer(
		"Liferaft Cache Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		reg:     reg,
		outbox:  ob,
		fetcher: fetcher,
	}

	// --- 1. Tool: get_cache_status ---
	s.AddTool(mcp.NewTool("get_cache_status",
		mcp.WithDescription("Report the cache database status: backend, per-store entry counts and estimated size."),
	), h.handleGetCacheStatus)

	// --- 2. Tool: list_stores ---
	s.AddTool(mcp.NewTool("list_stores",
		mcp.WithDescription("List every cache store with its health label (Current or Stale)."),
	), h.handleListStores)

	// --- 3. Tool: drop_store ---
	s.AddTool(mcp.NewTool("drop_store",
		mcp.WithDescription("Drop a cache store and every entry it holds. Dropping a Current store forces refetching."),
		mcp.WithString("store", mcp.Description("Name of the store to drop, e.g. 'assets-v1'."), mcp.Required()),
	), h.handleDropStore)

	// --- 4. Tool: evict_entry ---
	s.AddTool(mcp.NewTool("evict_entry",
		mcp.WithDescription("Evict a single cache entry by store name and request URL."),
		mcp.WithString("store", mcp.Description("Name of the store holding the entry."), mcp.Required()),
		mcp.WithString("url", mcp.Description("Absolute URL of the cached resource."), mcp.Required()),
		mcp.WithString("method", mcp.Description("HTTP method of the cached entry. Defaults to GET.")),
	), h.handleEvictEntry)

	// --- 5. Tool: get_outbox_status ---
	s.AddTool(mcp.NewTool("get_outbox_status",
		mcp.WithDescription("Report how many offline submissions are queued for replay."),
	), h.handleGetOutboxStatus)

	// --- 6. Tool: drain_outbox ---
	s.AddTool(mcp.NewTool("drain_outbox",
		mcp.WithDescription("Replay queued offline submissions against the origin now."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of tasks to replay. Defaults to the configured limit.")),
	), h.handleDrainOutbox)

	return s
}

// StartMCPServer starts the Liferaft MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, reg contract.Registry, ob contract.Outbox, fetcher contract.Fetcher) error {
	s := NewMCPServer(baseCfg, reg, ob, fetcher)
	return server.ServeStdio(s)
}
