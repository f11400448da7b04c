package parser

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	testCases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", `"2025-06-15T10:30:00Z"`, want},
		{"rfc3339 nano", `"2025-06-15T10:30:00.123456789Z"`, want.Add(123456789 * time.Nanosecond)},
		{"rfc3339 offset", `"2025-06-15T12:30:00+02:00"`, want},
		{"zoneless iso", `"2025-06-15T10:30:00"`, want},
		{"zoneless fractional", `"2025-06-15T10:30:00.500000"`, want.Add(500 * time.Millisecond)},
		{"space separated", `"2025-06-15 10:30:00"`, want},
		{"epoch seconds", `1749983400`, time.Unix(1749983400, 0).UTC()},
		{"epoch millis", `1749983400000`, time.Unix(1749983400, 0).UTC()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseTimestamp(json.RawMessage(tc.raw))
			assert.True(t, ok)
			assert.True(t, tc.want.Equal(got), "want %v, got %v", tc.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestampRejects(t *testing.T) {
	for _, raw := range []string{`"not a date"`, `""`, `0`, `-5`, `null`, `{}`, ``} {
		_, ok := parseTimestamp(json.RawMessage(raw))
		assert.False(t, ok, "raw %s", raw)
	}
}
