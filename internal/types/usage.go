package types

import (
	"time"
)

// UsageEntry is one billable assistant turn, normalized from a log record.
// Entries are rebuilt from the source files on every refresh cycle and are
// never mutated after construction.
type UsageEntry struct {
	Timestamp           time.Time `json:"timestamp"` // always UTC
	Model               string    `json:"model"`
	InputTokens         int       `json:"input_tokens"`
	OutputTokens        int       `json:"output_tokens"`
	CacheCreationTokens int       `json:"cache_creation_tokens"`
	CacheReadTokens     int       `json:"cache_read_tokens"`
	Cost                float64   `json:"cost"`
	// HasCost records whether the source line carried its own cost field,
	// so a recorded 0.0 is distinguishable from an absent cost.
	HasCost   bool   `json:"-"`
	SessionID string `json:"session_id"`
	UniqueID  string `json:"-"`
}

// TotalTokens returns input + output + cache tokens.
func (e UsageEntry) TotalTokens() int {
	return e.InputTokens + e.OutputTokens + e.CacheCreationTokens + e.CacheReadTokens
}

// EffectiveInputTokens is the billable input quantity: prompt tokens plus
// cache-creation and cache-read tokens. Whether cache reads bill at the
// full input rate is an assumption, not verified billing behavior.
func (e UsageEntry) EffectiveInputTokens() int {
	return e.InputTokens + e.CacheCreationTokens + e.CacheReadTokens
}

// DailyUsage is a per-calendar-day rollup (UTC days).
type DailyUsage struct {
	Date         time.Time   `json:"date"` // midnight UTC of the day
	TokenCounts  TokenCounts `json:"token_counts"`
	TotalCost    float64     `json:"total_cost"`
	RequestCount int         `json:"request_count"`
	Models       []string    `json:"models"`
}

// MonthlyUsage is a per-calendar-month rollup (UTC months).
type MonthlyUsage struct {
	Month        time.Time   `json:"month"` // first of the month, midnight UTC
	TokenCounts  TokenCounts `json:"token_counts"`
	TotalCost    float64     `json:"total_cost"`
	RequestCount int         `json:"request_count"`
	Models       []string    `json:"models"`
}

// ModelUsage is a per-model rollup over a set of entries.
type ModelUsage struct {
	Model        string      `json:"model"`
	TokenCounts  TokenCounts `json:"token_counts"`
	TotalCost    float64     `json:"total_cost"`
	RequestCount int         `json:"request_count"`
}

// SessionUsage is a per-session rollup keyed by SessionID.
type SessionUsage struct {
	SessionID    string        `json:"session_id"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
	TokenCounts  TokenCounts   `json:"token_counts"`
	TotalCost    float64       `json:"total_cost"`
	RequestCount int           `json:"request_count"`
	Models       []string      `json:"models"`
}
