package forecast

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp interprets a raw timestamp value. Strings are tried against
// ISO-8601 layouts and read as UTC when they carry no offset; numbers are
// milliseconds since the Unix epoch.
func ParseTimestamp(v any) (time.Time, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		return time.Time{}, false
	}
	ms, ok := numericField(v)
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}

// ExtractHour returns the hour of day for an entry, always within [0,23].
// A numeric hora or hour field wins, then the UTC hour of timestamp, then
// (fallbackIndex*2) mod 24.
func ExtractHour(e Entry, fallbackIndex int) int {
	if h, ok := numericHour(e); ok {
		return h
	}
	if t, ok := entryTime(e); ok {
		return t.Hour()
	}
	return wrapHour(fallbackIndex * 2)
}

// FormatHourLabel renders the "HH:00" label for an entry. The precedence
// follows ExtractHour, except that a literal "time" string is used verbatim
// before falling back to the timestamp.
func FormatHourLabel(e Entry, fallbackIndex int) string {
	if h, ok := numericHour(e); ok {
		return fmt.Sprintf("%02d:00", h)
	}
	if s, ok := e["time"].(string); ok {
		return s
	}
	if t, ok := entryTime(e); ok {
		return t.Format("15:04")
	}
	return fmt.Sprintf("%02d:00", wrapHour(fallbackIndex*2))
}

// numericHour returns the first of hourKeys holding a number. A non-numeric
// hora does not hide a numeric hour.
func numericHour(e Entry) (int, bool) {
	for _, k := range hourKeys {
		if n, ok := numericField(e[k]); ok {
			return wrapHour(int(math.Floor(n))), true
		}
	}
	return 0, false
}

func entryTime(e Entry) (time.Time, bool) {
	v, ok := e["timestamp"]
	if !ok || v == nil {
		return time.Time{}, false
	}
	return ParseTimestamp(v)
}

func wrapHour(h int) int {
	return ((h % 24) + 24) % 24
}
