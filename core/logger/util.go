package logger

import (
	"strings"
	"time"
)

// millis rounds d to whole milliseconds; negative durations log as zero.
func millis(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond).Milliseconds()
}

// Preview joins the first limit values with ", " and returns how many were left out.
func Preview(values []string, limit int) (string, int) {
	limit = max(0, min(limit, len(values)))
	return strings.Join(values[:limit], ", "), len(values) - limit
}
