package interval_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"roombook/shared/interval"
)

func clock(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := interval.ParseClock(value)
	assert.NoError(t, err)

	return parsed
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		start1   string
		end1     string
		start2   string
		end2     string
		expected bool
	}{
		{
			name:   "back to back windows do not overlap",
			start1: "09:00", end1: "10:00",
			start2: "10:00", end2: "11:00",
			expected: false,
		},
		{
			name:   "partial overlap",
			start1: "09:00", end1: "10:00",
			start2: "09:30", end2: "10:30",
			expected: true,
		},
		{
			name:   "contained window",
			start1: "09:00", end1: "12:00",
			start2: "10:00", end2: "11:00",
			expected: true,
		},
		{
			name:   "identical windows",
			start1: "09:00", end1: "10:00",
			start2: "09:00", end2: "10:00",
			expected: true,
		},
		{
			name:   "disjoint windows",
			start1: "08:00", end1: "09:00",
			start2: "10:00", end2: "11:00",
			expected: false,
		},
		{
			name:   "earlier window ends at later start",
			start1: "08:00", end1: "09:00",
			start2: "09:00", end2: "10:00",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s1, e1 := clock(t, tt.start1), clock(t, tt.end1)
			s2, e2 := clock(t, tt.start2), clock(t, tt.end2)

			assert.Equal(t, tt.expected, interval.Overlaps(s1, e1, s2, e2))
			// The predicate is symmetric.
			assert.Equal(t, tt.expected, interval.Overlaps(s2, e2, s1, e1))
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"9:30", "09:30"},
		{"09:30", "09:30"},
		{" 8:05 ", "08:05"},
		{"14:00", "14:00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, interval.Normalize(tt.input))
		})
	}
}

func TestParseClock(t *testing.T) {
	parsed, err := interval.ParseClock("9:15")
	assert.NoError(t, err)
	assert.Equal(t, 9, parsed.Hour())
	assert.Equal(t, 15, parsed.Minute())

	_, err = interval.ParseClock("25:00")
	assert.Error(t, err)

	_, err = interval.ParseClock("0900")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	parsed, err := interval.ParseDate("2025-03-10")
	assert.NoError(t, err)
	assert.Equal(t, 2025, parsed.Year())
	assert.Equal(t, time.March, parsed.Month())
	assert.Equal(t, 10, parsed.Day())

	_, err = interval.ParseDate("10/03/2025")
	assert.Error(t, err)
}

func TestDurationHours(t *testing.T) {
	start := clock(t, "09:00")

	assert.InDelta(t, 1.0, interval.DurationHours(start, clock(t, "10:00")), 1e-9)
	assert.InDelta(t, 1.5, interval.DurationHours(start, clock(t, "10:30")), 1e-9)
}
