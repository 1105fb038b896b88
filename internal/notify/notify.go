// Package notify renders notifications on the console, the delivery
// surface a headless daemon actually has.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
)

var titleColor = color.New(color.FgCyan, color.Bold)

// ConsoleNotifier prints notifications to a writer and tracks which are
// still open so dismissal is observable.
type ConsoleNotifier struct {
	mu        sync.Mutex
	out       io.Writer
	useColors bool
	nextID    int
	open      map[string]schema.Notification
}

var _ contract.Notifier = &ConsoleNotifier{} // Compile-time check

// NewConsoleNotifier creates a notifier writing to stdout.
func NewConsoleNotifier(useColors bool) *ConsoleNotifier {
	return NewConsoleNotifierTo(os.Stdout, useColors)
}

// NewConsoleNotifierTo creates a notifier writing to an explicit writer.
func NewConsoleNotifierTo(out io.Writer, useColors bool) *ConsoleNotifier {
	return &ConsoleNotifier{out: out, useColors: useColors, open: make(map[string]schema.Notification)}
}

// Display implements the Notifier interface. Identifiers increase
// monotonically per notifier.
func (n *ConsoleNotifier) Display(notification schema.Notification) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := fmt.Sprintf("notification-%d", n.nextID)
	n.open[id] = notification

	title := notification.Title
	if n.useColors {
		title = titleColor.Sprint(title)
	}
	if _, err := fmt.Fprintf(n.out, "[%s] %s: %s\n", id, title, notification.Body); err != nil {
		return "", fmt.Errorf("failed to write notification: %w", err)
	}
	for _, action := range notification.Actions {
		if _, err := fmt.Fprintf(n.out, "  (%s) %s\n", action.Action, action.Title); err != nil {
			return "", fmt.Errorf("failed to write notification action: %w", err)
		}
	}
	return id, nil
}

// Dismiss implements the Notifier interface. Dismissing an unknown or
// already dismissed identifier is an error.
func (n *ConsoleNotifier) Dismiss(id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.open[id]; !ok {
		return fmt.Errorf("no open notification with id %s", id)
	}
	delete(n.open, id)
	_, _ = fmt.Fprintf(n.out, "[%s] dismissed\n", id)
	return nil
}

// OpenCount returns how many notifications are currently displayed.
func (n *ConsoleNotifier) OpenCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.open)
}
