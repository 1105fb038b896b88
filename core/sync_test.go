package core

import (
	"context"
	"errors"
	"testing"

	"github.com/liferaft/liferaft/internal/registry"
	"github.com/liferaft/liferaft/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func queuedTask(id string) schema.SyncTask {
	return schema.SyncTask{
		ID:             id,
		Method:         "POST",
		URL:            "http://origin.local:8080/api/widgets/",
		Body:           []byte(`{"name":"widget"}`),
		ContentType:    "application/json",
		IdempotencyKey: "idem-" + id,
	}
}

func TestDrainReplaysInOrder(t *testing.T) {
	outbox := &registry.MockOutbox{}
	fetcher := &MockFetcher{}
	d := &Drainer{Outbox: outbox, Fetcher: fetcher, Limit: 50}

	outbox.On("ListReady", 50).Return([]schema.SyncTask{queuedTask("a"), queuedTask("b")}, nil)
	fetcher.On("Do", mock.Anything, mock.Anything).Return(snapshot(201, "created"), nil)
	outbox.On("Ack", "a").Return(nil)
	outbox.On("Ack", "b").Return(nil)

	settled, err := d.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, settled)
	outbox.AssertCalled(t, "Ack", "a")
	outbox.AssertCalled(t, "Ack", "b")
}

// TestDrainCarriesIdempotencyKey tests that every replay sends its
// task's idempotency key so a duplicate apply is detectable upstream.
func TestDrainCarriesIdempotencyKey(t *testing.T) {
	outbox := &registry.MockOutbox{}
	fetcher := &MockFetcher{}
	d := &Drainer{Outbox: outbox, Fetcher: fetcher, Limit: 50}

	outbox.On("ListReady", 50).Return([]schema.SyncTask{queuedTask("a")}, nil)
	fetcher.On("Do", mock.Anything, mock.MatchedBy(func(desc schema.RequestDescriptor) bool {
		return desc.Header.Get("Idempotency-Key") == "idem-a" &&
			desc.Header.Get("Content-Type") == "application/json"
	})).Return(snapshot(200, "ok"), nil)
	outbox.On("Ack", "a").Return(nil)

	settled, err := d.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
}

// TestDrainSettlement tests the ack/nack decision per replay outcome.
func TestDrainSettlement(t *testing.T) {
	tests := []struct {
		name     string
		snap     *schema.ResponseSnapshot
		fetchErr error
		wantAck  bool
	}{
		{name: "2xx applied is acked", snap: snapshot(201, "created"), wantAck: true},
		{name: "4xx permanent rejection is acked", snap: snapshot(422, "invalid"), wantAck: true},
		{name: "5xx origin failure is nacked", snap: snapshot(503, "unhealthy"), wantAck: false},
		{name: "network failure is nacked", fetchErr: errors.New("network down"), wantAck: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outbox := &registry.MockOutbox{}
			fetcher := &MockFetcher{}
			d := &Drainer{Outbox: outbox, Fetcher: fetcher, Limit: 50}

			outbox.On("ListReady", 50).Return([]schema.SyncTask{queuedTask("a")}, nil)
			fetcher.On("Do", mock.Anything, mock.Anything).Return(tt.snap, tt.fetchErr)
			outbox.On("Ack", "a").Return(nil).Maybe()
			outbox.On("Nack", "a", mock.AnythingOfType("string")).Return(nil).Maybe()

			settled, err := d.Drain(context.Background())
			require.NoError(t, err)
			if tt.wantAck {
				assert.Equal(t, 1, settled)
				outbox.AssertCalled(t, "Ack", "a")
				outbox.AssertNotCalled(t, "Nack", mock.Anything, mock.Anything)
			} else {
				assert.Equal(t, 0, settled)
				outbox.AssertCalled(t, "Nack", "a", mock.AnythingOfType("string"))
				outbox.AssertNotCalled(t, "Ack", mock.Anything)
			}
		})
	}
}

// TestDrainContinuesPastFailures tests that one stuck task does not
// block the rest of the queue.
func TestDrainContinuesPastFailures(t *testing.T) {
	outbox := &registry.MockOutbox{}
	fetcher := &MockFetcher{}
	d := &Drainer{Outbox: outbox, Fetcher: fetcher, Limit: 50}

	failing := queuedTask("a")
	failing.URL = "http://origin.local:8080/api/broken/"

	outbox.On("ListReady", 50).Return([]schema.SyncTask{failing, queuedTask("b")}, nil)
	fetcher.On("Do", mock.Anything, mock.MatchedBy(func(desc schema.RequestDescriptor) bool {
		return desc.URL == failing.URL
	})).Return(nil, errors.New("network down"))
	fetcher.On("Do", mock.Anything, mock.MatchedBy(func(desc schema.RequestDescriptor) bool {
		return desc.URL != failing.URL
	})).Return(snapshot(200, "ok"), nil)
	outbox.On("Nack", "a", mock.AnythingOfType("string")).Return(nil)
	outbox.On("Ack", "b").Return(nil)

	settled, err := d.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, settled, "the healthy task settles despite the stuck one")
}

func TestDrainEmptyQueue(t *testing.T) {
	outbox := &registry.MockOutbox{}
	fetcher := &MockFetcher{}
	d := &Drainer{Outbox: outbox, Fetcher: fetcher, Limit: 50}

	outbox.On("ListReady", 50).Return([]schema.SyncTask{}, nil)

	settled, err := d.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, settled)
	fetcher.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
}

func TestDrainListFailure(t *testing.T) {
	outbox := &registry.MockOutbox{}
	d := &Drainer{Outbox: outbox, Fetcher: &MockFetcher{}, Limit: 50}

	outbox.On("ListReady", 50).Return(nil, errors.New("database locked"))

	_, err := d.Drain(context.Background())
	require.Error(t, err)
}
