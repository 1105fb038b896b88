package core

import (
	"context"
	"fmt"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
)

// Service wires the router, strategies, lifecycle, push and sync
// handlers onto one event bus. It is the single deployment-scoped unit
// the transport layer dispatches into.
type Service struct {
	Config     *contract.Config
	Registry   contract.Registry
	Router     *Router
	Strategies *Strategies
	Lifecycle  *Lifecycle
	Push       *PushHandler
	Drainer    *Drainer
	Bus        *Bus
}

// NewService constructs a fully wired service and registers a handler
// for every event kind.
func NewService(
	cfg *contract.Config,
	reg contract.Registry,
	ob contract.Outbox,
	fetcher contract.Fetcher,
	notifier contract.Notifier,
	claimer contract.ClientClaimer,
) *Service {
	s := &Service{
		Config:   cfg,
		Registry: reg,
		Router:   NewRouter(cfg),
		Strategies: &Strategies{
			Fetcher:        fetcher,
			OfflineKey:     cfg.OfflineKey(),
			OfflineMessage: cfg.OfflineMessage,
			APIPrefix:      cfg.APIPrefix,
		},
		Lifecycle: &Lifecycle{
			Registry: reg,
			Fetcher:  fetcher,
			Claimer:  claimer,
			Config:   cfg,
		},
		Push: &PushHandler{
			Notifier: notifier,
			Claimer:  claimer,
		},
		Drainer: &Drainer{
			Outbox:  ob,
			Fetcher: fetcher,
			Limit:   cfg.OutboxLimit,
		},
		Bus: NewBus(),
	}

	s.Bus.Register(InstallEvent, s.handleInstall)
	s.Bus.Register(ActivateEvent, s.handleActivate)
	s.Bus.Register(FetchEvent, s.handleFetch)
	s.Bus.Register(PushEvent, s.handlePush)
	s.Bus.Register(NotificationClickEvent, s.handleClick)
	s.Bus.Register(SyncEvent, s.handleSync)
	return s
}

func (s *Service) handleInstall(ctx context.Context, _ Event) error {
	return s.Lifecycle.Install(ctx)
}

func (s *Service) handleActivate(ctx context.Context, _ Event) error {
	return s.Lifecycle.Activate(ctx)
}

// handleFetch classifies the request, runs the selected strategy and
// responds. The cache write runs after the response is delivered,
// inline or detached per configuration.
func (s *Service) handleFetch(ctx context.Context, evt Event) error {
	if evt.Request == nil || evt.Respond == nil {
		return fmt.Errorf("fetch event requires a request and a respond callback")
	}
	desc := *evt.Request

	action, storeName := s.Router.Route(desc)
	switch action {
	case schema.CacheFirstAction, schema.NetworkFirstAction:
	default:
		// Ignore and share-target traffic is settled at the transport
		// layer before it can reach the bus
		return fmt.Errorf("fetch handler cannot serve %s requests", action)
	}

	store, err := s.Registry.Open(storeName)
	if err != nil {
		return fmt.Errorf("failed to open store %s: %w", storeName, err)
	}

	var snap *schema.ResponseSnapshot
	var commit Commit
	if action == schema.CacheFirstAction {
		snap, commit = s.Strategies.CacheFirst(ctx, store, desc)
	} else {
		snap, commit = s.Strategies.NetworkFirst(ctx, store, desc)
	}

	evt.Respond(snap)

	if commit != nil {
		if s.Config.DetachCacheWrites {
			go func() {
				if err := commit(); err != nil {
					contract.LogWarn("detached cache write failed", err)
				}
			}()
		} else if err := commit(); err != nil {
			contract.LogWarn("cache write failed", err)
		}
	}
	return nil
}

func (s *Service) handlePush(_ context.Context, evt Event) error {
	_, err := s.Push.HandlePush(evt.Payload)
	return err
}

func (s *Service) handleClick(ctx context.Context, evt Event) error {
	return s.Push.HandleClick(ctx, evt.NotificationID, evt.Action)
}

func (s *Service) handleSync(ctx context.Context, evt Event) error {
	if evt.Tag != SyncTag {
		return fmt.Errorf("unknown sync tag %q", evt.Tag)
	}
	settled, err := s.Drainer.Drain(ctx)
	if err != nil {
		return err
	}
	if settled > 0 {
		fmt.Printf("Replayed %d queued submissions\n", settled)
	}
	return nil
}
