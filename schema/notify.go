package schema

// PushPayload is the parsed form of an incoming push message. Both
// fields may be defaulted when the raw payload is absent or malformed;
// parsing never fails.
type PushPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// NotificationAction is one actionable button on a notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Notification is a rendered, displayable notification descriptor.
type Notification struct {
	Title     string               `json:"title"`
	Body      string               `json:"body"`
	Icon      string               `json:"icon"`
	Badge     string               `json:"badge"`
	Vibration []int                `json:"vibration"`
	Actions   []NotificationAction `json:"actions"`
	Link      string               `json:"link"` // deep link opened on click
}

// Notification action identifiers.
const (
	OpenAction    = "open"
	DismissAction = "dismiss"
)
