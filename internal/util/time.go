package util

import (
	"strings"
	"time"
)

// SnapshotLayout renders snapshot timestamps with an explicit +00:00 offset.
const SnapshotLayout = "2006-01-02T15:04:05-07:00"

var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// SnapshotTime normalizes a clock reading to UTC with second precision.
func SnapshotTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func FormatSnapshot(t time.Time) string {
	return SnapshotTime(t).Format(SnapshotLayout)
}

// ParsePublished parses a Rutube publication timestamp. Offsets are kept so
// the hour is the one written in the timestamp; naive values are read as UTC.
func ParsePublished(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MondayWeekday maps time.Weekday onto 0=Monday..6=Sunday.
func MondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
