package utils

import (
	"fmt"
	"time"
)

// FormatDuration renders an incident duration in whole units, e.g.
// "2h 14m 3s" or "1d 2h 14m 3s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int64(d.Seconds())

	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}

	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
