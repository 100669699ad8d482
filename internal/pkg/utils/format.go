package utils

import (
	"fmt"
	"math"
	"time"
)

// FormatMagnitude renders a magnitude as "M 5.3".
func FormatMagnitude(m float64) string {
	return fmt.Sprintf("M %.1f", m)
}

// FormatDepth renders a depth as "10.0 km".
func FormatDepth(km float64) string {
	return fmt.Sprintf("%.1f km", km)
}

// FormatTime renders an event time in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// FormatCoordinates renders a position as "35.123°N, 120.456°W".
func FormatCoordinates(lat, lon float64) string {
	ns := "N"
	if lat < 0 {
		ns = "S"
	}
	ew := "E"
	if lon < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.3f°%s, %.3f°%s", math.Abs(lat), ns, math.Abs(lon), ew)
}

// FormatRelativeTime renders how long before now t happened, e.g. "5 min ago".
func FormatRelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d h ago", int(d/time.Hour))
	}

	days := int(d / (24 * time.Hour))
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
