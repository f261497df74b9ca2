// Package interval is the single source of truth for time-window overlap
// decisions. Every availability, capacity and cascade check in the service
// delegates here instead of re-deriving the comparison.
package interval

import (
	"fmt"
	"strings"
	"time"

	"roombook/shared/constant"
	"roombook/shared/failure"
	"roombook/shared/timezone"
)

// Overlaps reports whether the half-open windows [start1, end1) and
// [start2, end2) intersect. A window that ends exactly when another starts
// does not overlap it.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}

// Normalize zero-pads a single-digit hour in an HH:MM clock string, so
// "9:30" and "09:30" compare and parse the same way.
func Normalize(clock string) string {
	clock = strings.TrimSpace(clock)

	if i := strings.Index(clock, ":"); i == 1 {
		return "0" + clock
	}

	return clock
}

// ParseClock parses a 24-hour HH:MM time-of-day string.
func ParseClock(clock string) (time.Time, error) {
	parsed, err := time.Parse(constant.ClockFormat, Normalize(clock))
	if err != nil {
		return time.Time{}, failure.BadRequestFromString(fmt.Sprintf("invalid time format (expected HH:MM): %s", clock)) //nolint:wrapcheck
	}

	return parsed, nil
}

// ParseDate parses a YYYY-MM-DD calendar date in the application timezone.
func ParseDate(date string) (time.Time, error) {
	parsed, err := timezone.Parse(constant.DateOnlyFormat, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, failure.BadRequestFromString(fmt.Sprintf("invalid date format (expected YYYY-MM-DD): %s", date)) //nolint:wrapcheck
	}

	return parsed, nil
}

// DurationHours returns the window length in hours. Fractions are allowed,
// a 09:00-10:30 window is 1.5 hours.
func DurationHours(start, end time.Time) float64 {
	return end.Sub(start).Hours()
}
