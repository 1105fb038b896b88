package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/liferaft/liferaft/core"
	"github.com/liferaft/liferaft/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	reg     contract.Registry
	outbox  contract.Outbox
	fetcher contract.Fetcher
}

func (h *toolHandler) handleGetCacheStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.reg.GetStatus()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status query failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListStores(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := h.reg.ListNames()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("store listing failed: %v", err)), nil
	}

	current := h.baseCfg.CurrentStoreNames()
	type storeInfo struct {
		Name  string `json:"name"`
		State string `json:"state"`
	}
	stores := make([]storeInfo, 0, len(names))
	for _, name := range names {
		stores = append(stores, storeInfo{
			Name:  name,
			State: contract.GetPlainStoreLabel(name, current),
		})
	}

	jsonData, _ := json.MarshalIndent(stores, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleDropStore(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("store", "")
	if name == "" {
		return mcp.NewToolResultError("store name is required"), nil
	}

	if err := h.reg.Delete(name); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to drop store %s: %v", name, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Dropped store %s", name)), nil
}

func (h *toolHandler) handleEvictEntry(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("store", "")
	rawURL := request.GetString("url", "")
	if name == "" || rawURL == "" {
		return mcp.NewToolResultError("store name and url are required"), nil
	}
	method := strings.ToUpper(request.GetString("method", "GET"))

	store, err := h.reg.Open(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open store %s: %v", name, err)), nil
	}
	key := method + " " + rawURL
	if err := store.Evict(key); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to evict %s: %v", key, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Evicted %s from %s", key, name)), nil
}

func (h *toolHandler) handleGetOutboxStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.outbox.GetStatus()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("outbox status query failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleDrainOutbox(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", h.baseCfg.OutboxLimit)
	if limit <= 0 || limit > contract.MaxOutboxLimit {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be between 1 and %d", contract.MaxOutboxLimit)), nil
	}

	d := &core.Drainer{Outbox: h.outbox, Fetcher: h.fetcher, Limit: limit}
	settled, err := d.Drain(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("drain failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Replayed %d queued submissions", settled)), nil
}
