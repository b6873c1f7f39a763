package report

import (
	"fmt"
	"time"
)

// Time unit boundaries for duration formatting.
const (
	secondsPerMinute = 60
	minutesPerHour   = 60
	hoursPerDay      = 24
)

// FormatDuration humanizes the elapsed time since a status change using a
// single dominant unit: "45s" under one minute, "12m" under one hour,
// "3h 7m" under one day, "2d 5h" otherwise. Units truncate; there is no
// rounding. Negative durations (clock skew) format as "0s".
func FormatDuration(elapsed time.Duration) string {
	seconds := int(elapsed.Seconds())
	if seconds < 0 {
		seconds = 0
	}

	if seconds < secondsPerMinute {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / secondsPerMinute
	if minutes < minutesPerHour {
		return fmt.Sprintf("%dm", minutes)
	}

	hours := minutes / minutesPerHour
	if hours < hoursPerDay {
		return fmt.Sprintf("%dh %dm", hours, minutes%minutesPerHour)
	}

	days := hours / hoursPerDay
	return fmt.Sprintf("%dd %dh", days, hours%hoursPerDay)
}

// durationSince formats the elapsed time between a last-changed timestamp
// and the snapshot's evaluation time.
func durationSince(now, lastChanged time.Time) string {
	return FormatDuration(now.Sub(lastChanged))
}
