package core

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
)

// Defaults used when a push payload is absent or unparseable.
const (
	DefaultPushTitle   = "Liferaft"
	DefaultPushMessage = "Something new is waiting for you."
)

// Fixed notification assets and vibration pattern.
var (
	notificationIcon      = "/static/icons/icon-192.png"
	notificationBadge     = "/static/icons/badge-72.png"
	notificationVibration = []int{100, 50, 100}
)

// ParsePushPayload parses a raw push message. JSON payloads may carry a
// title and message; anything else is consumed as plain text. Parsing
// never fails; missing pieces get defaults.
func ParsePushPayload(raw []byte) schema.PushPayload {
	payload := schema.PushPayload{
		Title:   DefaultPushTitle,
		Message: DefaultPushMessage,
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return payload
	}

	var parsed schema.PushPayload
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Title != "" {
			payload.Title = parsed.Title
		}
		if parsed.Message != "" {
			payload.Message = parsed.Message
		}
		return payload
	}

	payload.Message = text
	return payload
}

// BuildNotification renders a parsed payload as a displayable
// notification descriptor with the fixed icon, badge, vibration pattern
// and the open/dismiss action pair.
func BuildNotification(p schema.PushPayload) schema.Notification {
	return schema.Notification{
		Title:     p.Title,
		Body:      p.Message,
		Icon:      notificationIcon,
		Badge:     notificationBadge,
		Vibration: notificationVibration,
		Actions: []schema.NotificationAction{
			{Action: schema.OpenAction, Title: "Open"},
			{Action: schema.DismissAction, Title: "Dismiss"},
		},
		Link: "/",
	}
}

// PushHandler displays push notifications and routes notification
// clicks to navigation.
type PushHandler struct {
	Notifier contract.Notifier
	Claimer  contract.ClientClaimer
}

// HandlePush renders and displays the notification for a raw push
// payload, returning the displayed notification's identifier.
func (h *PushHandler) HandlePush(raw []byte) (string, error) {
	n := BuildNotification(ParsePushPayload(raw))
	return h.Notifier.Display(n)
}

// HandleClick closes the clicked notification, and for the open action
// (or a click on the notification body itself) opens the application
// root. Other actions are no-ops beyond closing.
func (h *PushHandler) HandleClick(ctx context.Context, id, action string) error {
	if err := h.Notifier.Dismiss(id); err != nil {
		contract.LogWarn("failed to dismiss notification", err)
	}
	if action == "" || action == schema.OpenAction {
		return h.Claimer.OpenRoot(ctx)
	}
	return nil
}
