package core

import (
	"context"
	"fmt"
	"net/http"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
	"github.com/sourcegraph/conc/pool"
)

// Lifecycle owns the two-phase deployment protocol: install precaches
// the manifest into the new version's stores, activate retires stale
// stores and claims every connected client.
type Lifecycle struct {
	Registry contract.Registry
	Fetcher  contract.Fetcher
	Claimer  contract.ClientClaimer
	Config   *contract.Config
}

// precached pairs a cache key with its fetched snapshot, buffered until
// the whole manifest has fetched successfully.
type precached struct {
	key  string
	snap *schema.ResponseSnapshot
}

// Install fetches the full precache manifest concurrently and writes it
// into the current asset store. Any failed fetch aborts the install
// before anything is written, so a previous release keeps serving.
func (l *Lifecycle) Install(ctx context.Context) error {
	p := pool.NewWithResults[precached]().
		WithContext(ctx).
		WithMaxGoroutines(l.Config.Workers).
		WithCancelOnError()

	for _, path := range l.Config.Manifest {
		p.Go(func(ctx context.Context) (precached, error) {
			desc, err := schema.NewRequestDescriptor(http.MethodGet, l.Config.AbsoluteURL(path))
			if err != nil {
				return precached{}, fmt.Errorf("invalid manifest path %q: %w", path, err)
			}
			snap, err := l.Fetcher.Do(ctx, desc)
			if err != nil {
				return precached{}, fmt.Errorf("failed to fetch manifest entry %q: %w", path, err)
			}
			if !snap.IsSuccess() {
				return precached{}, fmt.Errorf("manifest entry %q returned status %d", path, snap.Status)
			}
			return precached{key: desc.Key(), snap: snap}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return fmt.Errorf("install aborted: %w", err)
	}

	store, err := l.Registry.Open(l.Config.AssetStoreName())
	if err != nil {
		return fmt.Errorf("failed to open asset store: %w", err)
	}
	for _, r := range results {
		if err := store.Put(r.key, r.snap); err != nil {
			return fmt.Errorf("failed to precache %q: %w", r.key, err)
		}
	}

	// The API store starts empty but must exist so activation sees it
	if _, err := l.Registry.Open(l.Config.APIStoreName()); err != nil {
		return fmt.Errorf("failed to open API store: %w", err)
	}
	return nil
}

// Activate deletes every store whose name is not in the current version
// manifest, then claims all connected clients. Store deletion is
// best-effort per store; one failure does not block the others or the
// claim step.
func (l *Lifecycle) Activate(ctx context.Context) error {
	names, err := l.Registry.ListNames()
	if err != nil {
		return fmt.Errorf("failed to enumerate stores: %w", err)
	}

	current := l.Config.CurrentStoreNames()
	for _, name := range names {
		if _, ok := current[name]; ok {
			continue
		}
		if err := l.Registry.Delete(name); err != nil {
			contract.LogWarn(fmt.Sprintf("failed to evict stale store %s", name), err)
		}
	}

	if err := l.Claimer.Claim(ctx); err != nil {
		return fmt.Errorf("failed to claim clients: %w", err)
	}
	return nil
}
