// Package timeutil provides time formatting helpers for CLI output.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// localTimeLayout is the layout for rendering timestamps in local time.
const localTimeLayout = "Mon Jan 2 15:04:05 2006"

// FormatTime renders an RFC3339 timestamp in local time.
// The input is returned unchanged when it does not parse.
func FormatTime(timestamp string) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return timestamp
	}
	return t.Local().Format(localTimeLayout)
}

// FormatUptime renders a Go duration string as day, hour, minute and
// second components, omitting leading zero units. The input is returned
// unchanged when it does not parse.
func FormatUptime(uptime string) string {
	d, err := time.ParseDuration(uptime)
	if err != nil {
		return uptime
	}

	total := int64(d.Seconds())
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if b.Len() > 0 || hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if b.Len() > 0 || minutes > 0 {
		fmt.Fprintf(&b, "%dm ", minutes)
	}
	fmt.Fprintf(&b, "%ds", seconds)
	return b.String()
}
