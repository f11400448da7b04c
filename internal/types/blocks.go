package types

import (
	"time"
)

// TokenCounts represents aggregated token counts for different token types
type TokenCounts struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_tokens"`
	CacheReadTokens     int `json:"cache_read_tokens"`
}

// GetTotal calculates the total number of tokens from TokenCounts
func (tc TokenCounts) GetTotal() int {
	return tc.InputTokens + tc.OutputTokens + tc.CacheCreationTokens + tc.CacheReadTokens
}

// Add accumulates one entry's counts.
func (tc *TokenCounts) Add(e UsageEntry) {
	tc.InputTokens += e.InputTokens
	tc.OutputTokens += e.OutputTokens
	tc.CacheCreationTokens += e.CacheCreationTokens
	tc.CacheReadTokens += e.CacheReadTokens
}

// SessionBlock represents a 5-hour billing window reconstructed from the
// entry timeline, or a synthetic gap between two windows.
type SessionBlock struct {
	ID            string       `json:"id"`                        // RFC3339 of start, or gap-<start>
	StartTime     time.Time    `json:"start_time"`                // floored to the hour for normal blocks
	EndTime       time.Time    `json:"end_time"`                  // start + window for normal blocks; next activity for gaps
	ActualEndTime *time.Time   `json:"actual_end_time,omitempty"` // last entry actually in the block
	IsActive      bool         `json:"is_active"`
	IsGap         bool         `json:"is_gap"`
	Entries       []UsageEntry `json:"entries"`
	TokenCounts   TokenCounts  `json:"token_counts"`
	CostUSD       float64      `json:"cost_usd"`
	Models        []string     `json:"models"` // distinct, sorted
}

// BurnRate represents usage burn rate calculations
type BurnRate struct {
	TokensPerMinute             float64 `json:"tokens_per_minute"`
	TokensPerMinuteForIndicator float64 `json:"tokens_per_minute_for_indicator"` // non-cache tokens, for threshold indicators
	CostPerHour                 float64 `json:"cost_per_hour"`
}

// ProjectedUsage represents projected usage for remaining time in a session block
type ProjectedUsage struct {
	TotalTokens      int     `json:"total_tokens"`
	TotalCost        float64 `json:"total_cost"`
	RemainingMinutes float64 `json:"remaining_minutes"`
}
