package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// RelativeTime renders t as "3 hours ago", or "-" for the zero time.
func RelativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// Elapsed renders a spinner duration as m:ss.
func Elapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%d:%02d", int(d/time.Minute), int((d%time.Minute)/time.Second))
}
