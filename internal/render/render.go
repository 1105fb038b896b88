// Package render prints cache and outbox status for the console.
package render

import (
	"os"

	"golang.org/x/term"
)

// GetMaxTableURLWidth calculates the maximum width for URLs in table
// output based on terminal width. A positive override wins over
// detection.
func GetMaxTableURLWidth(override int) int {
	termWidth := override

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for the method, attempts and age columns with
	// borders and padding
	baseWidth := 40

	available := termWidth - baseWidth
	if available < 20 {
		// Minimum reasonable URL width
		return 20
	}
	if available > 80 {
		// Maximum URL width to prevent overly long rows
		return 80
	}
	return available
}

// truncateMiddle shortens a string to max runes, keeping both ends.
func truncateMiddle(s string, max int) string {
	if len(s) <= max || max < 5 {
		return s
	}
	keep := max - 3
	head := keep / 2
	tail := keep - head
	return s[:head] + "..." + s[len(s)-tail:]
}
