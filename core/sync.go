package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
)

// SyncTag is the named reconnect signal that triggers an outbox drain.
const SyncTag = "replay-outbox"

// Drainer replays deferred mutating requests from the outbox when a
// reconnect signal arrives. Tasks that replay successfully (or are
// permanently rejected by the origin) are removed; network failures
// leave the task queued for the next signal.
type Drainer struct {
	Outbox  contract.Outbox
	Fetcher contract.Fetcher
	Limit   int
}

// Drain replays up to Limit queued tasks in enqueue order and returns
// how many were settled. Each replay carries its task's idempotency key
// so a retry racing a successful original cannot apply twice.
func (d *Drainer) Drain(ctx context.Context) (int, error) {
	tasks, err := d.Outbox.ListReady(d.Limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list queued tasks: %w", err)
	}

	settled := 0
	for _, task := range tasks {
		desc := schema.RequestDescriptor{
			Method: strings.ToUpper(task.Method),
			URL:    task.URL,
			Header: http.Header{},
			Body:   task.Body,
		}
		if task.ContentType != "" {
			desc.Header.Set("Content-Type", task.ContentType)
		}
		desc.Header.Set("Idempotency-Key", task.IdempotencyKey)

		snap, err := d.Fetcher.Do(ctx, desc)
		if err != nil {
			// Still offline; keep the task for the next signal
			if nackErr := d.Outbox.Nack(task.ID, err.Error()); nackErr != nil {
				contract.LogWarn("failed to record replay failure", nackErr)
			}
			continue
		}

		if snap.Status >= http.StatusInternalServerError {
			// Origin is unhealthy; retry later
			msg := fmt.Sprintf("origin returned status %d", snap.Status)
			if nackErr := d.Outbox.Nack(task.ID, msg); nackErr != nil {
				contract.LogWarn("failed to record replay failure", nackErr)
			}
			continue
		}

		// 2xx applied, 4xx permanently rejected; either way the task is done
		if err := d.Outbox.Ack(task.ID); err != nil {
			contract.LogWarn("failed to remove settled task", err)
			continue
		}
		settled++
	}
	return settled, nil
}
