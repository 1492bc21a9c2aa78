// Package utils provides shared text, math, and logging helpers.
package utils

// Truncate returns s cut to at most maxLen runes, with an ellipsis appended
// when anything was removed. maxLen <= 0 returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
