package utils

import (
	"fmt"
	"time"
)

// FormatServiceTime renders seconds since the start of the service day as
// GTFS HH:MM:SS. Hours run past 23 for post-midnight calls.
func FormatServiceTime(seconds int64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, seconds/3600, seconds/60%60, seconds%60)
}

// UnixMillis converts t to epoch milliseconds, the unit of every timestamp in
// API responses. The zero time maps to 0.
func UnixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// UnixMillisPtr is UnixMillis for optional times.
func UnixMillisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := UnixMillis(*t)
	return &ms
}
