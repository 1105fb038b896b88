package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintCacheStatus writes the cache database status as a table, one row
// per store, with a health label against the current version set.
func PrintCacheStatus(w io.Writer, status schema.CacheStatus, current map[string]struct{}, useColors bool) error {
	fmt.Fprintf(w, "Cache backend: %s\n", status.Backend)
	if !status.Connected {
		fmt.Fprintln(w, "Cache is disabled")
		return nil
	}
	fmt.Fprintf(w, "Total entries: %d (approx. %s on disk)\n\n", status.TotalEntries, formatBytes(status.TableSizeBytes))

	if len(status.Stores) == 0 {
		fmt.Fprintln(w, "No stores yet; run a lifecycle install to precache")
		return nil
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Store", "State", "Entries", "Newest", "Oldest"})

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, store := range status.Stores {
		label := contract.GetPlainStoreLabel(store.Name, current)
		if useColors {
			label = contract.GetColorStoreLabel(store.Name, current)
		}
		data = append(data, []string{
			store.Name,
			label,
			strconv.Itoa(store.Entries),
			formatTime(store.LastEntryTime),
			formatTime(store.OldestEntryTime),
		})
	}
	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("failed to build status table: %w", err)
	}
	return table.Render()
}

// PrintCacheStatusJSON writes the cache status as indented JSON.
func PrintCacheStatusJSON(w io.Writer, status schema.CacheStatus) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(status)
}

// PrintOutboxStatus writes the outbox queue depth and age range.
func PrintOutboxStatus(w io.Writer, status schema.OutboxStatus, useColors bool) error {
	fmt.Fprintf(w, "Outbox backend: %s\n", status.Backend)
	if !status.Connected {
		fmt.Fprintln(w, "Outbox is disabled")
		return nil
	}

	if status.Pending == 0 {
		fmt.Fprintln(w, "No submissions queued")
		return nil
	}

	label := contract.PendingValue
	if useColors {
		label = contract.PendingColor.Sprint(label)
	}
	fmt.Fprintf(w, "%s: %d submissions awaiting replay\n", label, status.Pending)
	fmt.Fprintf(w, "Oldest queued: %s\n", formatTime(status.OldestTaskTime))
	fmt.Fprintf(w, "Newest queued: %s\n", formatTime(status.LastTaskTime))
	return nil
}

// PrintOutboxTasks writes queued tasks as a table, URL truncated to the
// terminal width.
func PrintOutboxTasks(w io.Writer, tasks []schema.SyncTask, urlWidth int) error {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No submissions queued")
		return nil
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Method", "URL", "Attempts", "Queued", "Last Error"})

	var data [][]string
	for _, task := range tasks {
		data = append(data, []string{
			task.Method,
			truncateMiddle(task.URL, urlWidth),
			strconv.Itoa(task.Attempts),
			formatTime(time.Unix(task.CreatedAt, 0)),
			truncateMiddle(task.LastError, 40),
		})
	}
	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("failed to build outbox table: %w", err)
	}
	return table.Render()
}

func formatTime(t time.Time) string {
	if t.IsZero() || t.Unix() <= 0 {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/float64(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
