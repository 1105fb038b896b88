package core

import (
	"strings"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
)

// Router classifies intercepted requests. Classification is pure and
// total: every request maps to exactly one action.
type Router struct {
	cfg *contract.Config
}

// NewRouter creates a router for the current deployment's config.
func NewRouter(cfg *contract.Config) *Router {
	return &Router{cfg: cfg}
}

// Route returns the action for a request and, for the two strategy
// actions, the name of the store to run it against.
//
// Rules, in priority order:
//  1. WebSocket upgrades, dev-tooling channels and capability-token
//     requests pass through untouched.
//  2. POSTs to the share endpoint get share-target handling.
//  3. API paths are network-first against the API store.
//  4. Asset destinations are cache-first against the asset store.
//  5. Everything else is network-first against the asset store.
func (r *Router) Route(desc schema.RequestDescriptor) (schema.Action, string) {
	if r.isPassthrough(desc) {
		return schema.IgnoreAction, ""
	}
	if desc.Method == "POST" && desc.Path == r.cfg.SharePath {
		return schema.ShareTargetAction, ""
	}
	if strings.HasPrefix(desc.Path, r.cfg.APIPrefix) {
		return schema.NetworkFirstAction, r.cfg.APIStoreName()
	}
	if desc.Destination.IsAsset() {
		return schema.CacheFirstAction, r.cfg.AssetStoreName()
	}
	return schema.NetworkFirstAction, r.cfg.AssetStoreName()
}

// isPassthrough reports whether the request must never be intercepted.
// Streaming and correctness-sensitive traffic dominates every other rule.
func (r *Router) isPassthrough(desc schema.RequestDescriptor) bool {
	if strings.EqualFold(desc.Header.Get("Upgrade"), "websocket") {
		return true
	}
	for _, prefix := range r.cfg.DevPrefixes {
		if strings.HasPrefix(desc.Path, prefix) {
			return true
		}
	}
	if r.cfg.CapabilityParam != "" && desc.Query.Has(r.cfg.CapabilityParam) {
		return true
	}
	return false
}
