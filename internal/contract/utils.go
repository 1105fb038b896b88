package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Store health label constants.
const (
	CurrentValue = "Current" // store belongs to the active version set
	StaleValue   = "Stale"   // store is awaiting eviction
	PendingValue = "Pending" // outbox task awaiting replay
)

// Color variables for console output.
var (
	CurrentColor = color.New(color.FgGreen, color.Bold) // currentColor marks live stores.
	StaleColor   = color.New(color.FgYellow)            // staleColor marks stores pending eviction.
	PendingColor = color.New(color.FgMagenta)           // pendingColor marks queued outbox work.
)

// GetPlainStoreLabel returns a plain text label for a store given the
// set of current store names. This is the core logic used for table
// and JSON printing.
func GetPlainStoreLabel(name string, current map[string]struct{}) string {
	if _, ok := current[name]; ok {
		return CurrentValue
	}
	return StaleValue
}

// GetColorStoreLabel returns a colored text label for console output.
// It uses GetPlainStoreLabel to determine the string, and then applies
// the appropriate color.
func GetColorStoreLabel(name string, current map[string]struct{}) string {
	text := GetPlainStoreLabel(name, current)
	if text == CurrentValue {
		return CurrentColor.Sprint(text)
	}
	return StaleColor.Sprint(text)
}

// SelectOutputFile returns the appropriate file handle for output, based
// on the provided file path. It falls back to os.Stdout when no path is
// given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".liferaft_cache.db"
	}
	return filepath.Join(homeDir, ".liferaft_cache.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
