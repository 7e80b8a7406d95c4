package utils

import "fmt"

// DefaultMaxStringLength caps preview strings embedded in errors and trace
// events.
const DefaultMaxStringLength = 500

// TruncateString truncates s to maxLen characters, appending a suffix with
// the original length so the reader knows content was dropped.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}
