package core

import (
	"context"
	"errors"
	"testing"

	"github.com/liferaft/liferaft/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParsePushPayload(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantTitle   string
		wantMessage string
	}{
		{
			name:        "full json payload",
			raw:         `{"title":"Deploy done","message":"v42 is live"}`,
			wantTitle:   "Deploy done",
			wantMessage: "v42 is live",
		},
		{
			name:        "json missing title keeps default title",
			raw:         `{"message":"only a message"}`,
			wantTitle:   DefaultPushTitle,
			wantMessage: "only a message",
		},
		{
			name:        "json missing message keeps default message",
			raw:         `{"title":"only a title"}`,
			wantTitle:   "only a title",
			wantMessage: DefaultPushMessage,
		},
		{
			name:        "plain text becomes the message",
			raw:         "server maintenance at noon",
			wantTitle:   DefaultPushTitle,
			wantMessage: "server maintenance at noon",
		},
		{
			name:        "malformed json falls back to text",
			raw:         `{"title": "unterminated`,
			wantTitle:   DefaultPushTitle,
			wantMessage: `{"title": "unterminated`,
		},
		{
			name:        "empty payload gets full defaults",
			raw:         "",
			wantTitle:   DefaultPushTitle,
			wantMessage: DefaultPushMessage,
		},
		{
			name:        "whitespace only gets full defaults",
			raw:         "  \n\t ",
			wantTitle:   DefaultPushTitle,
			wantMessage: DefaultPushMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePushPayload([]byte(tt.raw))
			assert.Equal(t, tt.wantTitle, p.Title)
			assert.Equal(t, tt.wantMessage, p.Message)
		})
	}
}

func TestBuildNotification(t *testing.T) {
	n := BuildNotification(schema.PushPayload{Title: "Hello", Message: "World"})

	assert.Equal(t, "Hello", n.Title)
	assert.Equal(t, "World", n.Body)
	assert.NotEmpty(t, n.Icon)
	assert.NotEmpty(t, n.Badge)
	assert.Equal(t, []int{100, 50, 100}, n.Vibration)
	assert.Equal(t, "/", n.Link)

	require.Len(t, n.Actions, 2)
	assert.Equal(t, schema.OpenAction, n.Actions[0].Action)
	assert.Equal(t, schema.DismissAction, n.Actions[1].Action)
}

func TestHandlePushDisplays(t *testing.T) {
	notifier := &MockNotifier{}
	h := &PushHandler{Notifier: notifier, Claimer: &MockClaimer{}}

	notifier.On("Display", mock.MatchedBy(func(n schema.Notification) bool {
		return n.Title == "Deploy done" && n.Body == "v42 is live"
	})).Return("notif-1", nil)

	id, err := h.HandlePush([]byte(`{"title":"Deploy done","message":"v42 is live"}`))
	require.NoError(t, err)
	assert.Equal(t, "notif-1", id)
}

func TestHandleClick(t *testing.T) {
	tests := []struct {
		name     string
		action   string
		wantOpen bool
	}{
		{name: "open action opens the root", action: schema.OpenAction, wantOpen: true},
		{name: "body click opens the root", action: "", wantOpen: true},
		{name: "dismiss only closes", action: schema.DismissAction, wantOpen: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &MockNotifier{}
			claimer := &MockClaimer{}
			h := &PushHandler{Notifier: notifier, Claimer: claimer}

			notifier.On("Dismiss", "notif-1").Return(nil)
			if tt.wantOpen {
				claimer.On("OpenRoot", mock.Anything).Return(nil)
			}

			require.NoError(t, h.HandleClick(context.Background(), "notif-1", tt.action))
			notifier.AssertCalled(t, "Dismiss", "notif-1")
			if tt.wantOpen {
				claimer.AssertCalled(t, "OpenRoot", mock.Anything)
			} else {
				claimer.AssertNotCalled(t, "OpenRoot", mock.Anything)
			}
		})
	}
}

// TestHandleClickDismissFailureStillOpens tests that a failed close does
// not block navigation.
func TestHandleClickDismissFailureStillOpens(t *testing.T) {
	notifier := &MockNotifier{}
	claimer := &MockClaimer{}
	h := &PushHandler{Notifier: notifier, Claimer: claimer}

	notifier.On("Dismiss", "notif-1").Return(errors.New("already gone"))
	claimer.On("OpenRoot", mock.Anything).Return(nil)

	require.NoError(t, h.HandleClick(context.Background(), "notif-1", schema.OpenAction))
	claimer.AssertCalled(t, "OpenRoot", mock.Anything)
}
