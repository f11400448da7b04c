package parser

import (
	"encoding/json"
	"time"
)

// epochMillisThreshold disambiguates numeric timestamps: values at or
// above it are milliseconds, below are seconds.
const epochMillisThreshold = 1e12

// timestampFormats is the attempt-in-order ladder for string timestamps.
// Formats without a zone are interpreted as UTC.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// parseTimestamp decodes a raw JSON timestamp value (string or number)
// into a UTC instant. ok is false when no format matches.
func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, format := range timestampFormats {
			if t, err := time.Parse(format, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n <= 0 {
			return time.Time{}, false
		}
		if n >= epochMillisThreshold {
			return time.UnixMilli(int64(n)).UTC(), true
		}
		return time.Unix(int64(n), 0).UTC(), true
	}

	return time.Time{}, false
}
