package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccpulse/ccpulse/internal/types"
)

func entryAt(ts time.Time, tokens int) types.UsageEntry {
	return types.UsageEntry{
		Timestamp:    ts,
		Model:        "claude-sonnet-4-5",
		InputTokens:  tokens / 2,
		OutputTokens: tokens - tokens/2,
	}
}

func TestIdentifySessionBlocksEmpty(t *testing.T) {
	blocks := IdentifySessionBlocks(nil, DefaultSessionDuration, time.Now())
	assert.Empty(t, blocks)
}

func TestIdentifySessionBlocksSingleBlock(t *testing.T) {
	base := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	now := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	entries := []types.UsageEntry{
		entryAt(base, 100),
		entryAt(base.Add(30*time.Minute), 200),
		entryAt(base.Add(time.Hour), 300),
	}

	blocks := IdentifySessionBlocks(entries, DefaultSessionDuration, now)
	require.Len(t, blocks, 1)

	b := blocks[0]
	// block start floors to the hour, not the first entry
	assert.Equal(t, time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC), b.StartTime)
	assert.Equal(t, b.StartTime.Add(5*time.Hour), b.EndTime)
	assert.Equal(t, 600, b.TokenCounts.GetTotal())
	assert.False(t, b.IsActive)
	assert.False(t, b.IsGap)
	require.NotNil(t, b.ActualEndTime)
	assert.True(t, b.ActualEndTime.Equal(base.Add(time.Hour)))
}

func TestIdentifySessionBlocksGapEmission(t *testing.T) {
	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	now := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)

	last := base.Add(time.Hour)
	next := base.Add(9 * time.Hour) // 8h after last entry, > 5h window
	entries := []types.UsageEntry{
		entryAt(base, 100),
		entryAt(last, 100),
		entryAt(next, 100),
	}

	blocks := IdentifySessionBlocks(entries, DefaultSessionDuration, now)
	require.Len(t, blocks, 3)

	gap := blocks[1]
	assert.True(t, gap.IsGap)
	assert.True(t, gap.StartTime.Equal(last.Add(5*time.Hour)), "gap starts one window after last activity")
	assert.True(t, gap.EndTime.Equal(next))
	assert.Equal(t, "gap-"+gap.StartTime.Format(time.RFC3339), gap.ID)
	assert.Empty(t, gap.Entries)
	assert.False(t, gap.IsActive)
}

func TestIdentifySessionBlocksNoGapOnBlockStartClose(t *testing.T) {
	// Steady activity past the window end closes the block without a gap:
	// the idle span between entries never exceeds the window.
	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	now := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)

	var entries []types.UsageEntry
	for i := 0; i <= 6; i++ {
		entries = append(entries, entryAt(base.Add(time.Duration(i)*time.Hour), 100))
	}

	blocks := IdentifySessionBlocks(entries, DefaultSessionDuration, now)
	require.Len(t, blocks, 2)
	assert.False(t, blocks[0].IsGap)
	assert.False(t, blocks[1].IsGap)
	// second block re-floors to the hour of its first entry
	assert.True(t, blocks[1].StartTime.Equal(base.Add(6*time.Hour)))
}

func TestBlockActivityDetection(t *testing.T) {
	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	lastEntry := start.Add(2 * time.Hour)
	entries := []types.UsageEntry{entryAt(start.Add(time.Minute), 100), entryAt(lastEntry, 100)}

	testCases := []struct {
		name   string
		now    time.Time
		active bool
	}{
		{"recent activity inside window", lastEntry.Add(2 * time.Minute), true},
		{"exactly at activity window", lastEntry.Add(5 * time.Minute), true},
		{"stale activity inside window", lastEntry.Add(10 * time.Minute), false},
		{"after window end", start.Add(5*time.Hour + time.Minute), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			blocks := IdentifySessionBlocks(entries, DefaultSessionDuration, tc.now)
			require.Len(t, blocks, 1)
			assert.Equal(t, tc.active, blocks[0].IsActive)
		})
	}
}

func TestCalculateBurnRate(t *testing.T) {
	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	entries := []types.UsageEntry{
		entryAt(start, 100_000),
		entryAt(start.Add(time.Hour), 200_000),
	}
	now := start.Add(time.Hour) // closed block; elapsed is first->last

	blocks := IdentifySessionBlocks(entries, DefaultSessionDuration, now.Add(time.Hour))
	require.Len(t, blocks, 1)

	rate := CalculateBurnRate(blocks[0], now.Add(time.Hour))
	require.NotNil(t, rate)
	// 300k tokens over 60 minutes
	assert.InDelta(t, 5000, rate.TokensPerMinute, 1e-9)
	assert.InDelta(t, 5000, rate.TokensPerMinuteForIndicator, 1e-9)
}

func TestCalculateBurnRateActiveUsesNow(t *testing.T) {
	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	entries := []types.UsageEntry{
		entryAt(start, 60_000),
		entryAt(start.Add(28*time.Minute), 60_000),
	}
	now := start.Add(30 * time.Minute)

	blocks := IdentifySessionBlocks(entries, DefaultSessionDuration, now)
	require.Len(t, blocks, 1)
	require.True(t, blocks[0].IsActive)

	rate := CalculateBurnRate(blocks[0], now)
	require.NotNil(t, rate)
	// 120k tokens over 30 minutes: elapsed extends to now for active blocks
	assert.InDelta(t, 4000, rate.TokensPerMinute, 1e-9)
}

func TestCalculateBurnRateCostPerHour(t *testing.T) {
	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	e1 := entryAt(start, 100)
	e1.Cost = 1.50
	e2 := entryAt(start.Add(30*time.Minute), 100)
	e2.Cost = 1.50

	blocks := IdentifySessionBlocks([]types.UsageEntry{e1, e2}, DefaultSessionDuration, start.Add(2*time.Hour))
	require.Len(t, blocks, 1)

	rate := CalculateBurnRate(blocks[0], start.Add(2*time.Hour))
	require.NotNil(t, rate)
	// $3.00 over 30 minutes projects to $6.00/hour
	assert.InDelta(t, 6.00, rate.CostPerHour, 1e-9)
}

func TestCalculateBurnRateNilCases(t *testing.T) {
	now := time.Now()
	assert.Nil(t, CalculateBurnRate(types.SessionBlock{IsGap: true}, now))
	assert.Nil(t, CalculateBurnRate(types.SessionBlock{}, now))

	// single closed entry has zero elapsed
	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	blocks := IdentifySessionBlocks([]types.UsageEntry{entryAt(start, 100)}, DefaultSessionDuration, start.Add(6*time.Hour))
	require.Len(t, blocks, 1)
	assert.Nil(t, CalculateBurnRate(blocks[0], start.Add(6*time.Hour)))
}

func TestProjectBlockUsage(t *testing.T) {
	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	e1 := entryAt(start, 50_000)
	e1.Cost = 1.00
	e2 := entryAt(start.Add(time.Hour), 50_000)
	e2.Cost = 1.00
	now := start.Add(time.Hour)

	blocks := IdentifySessionBlocks([]types.UsageEntry{e1, e2}, DefaultSessionDuration, now)
	require.Len(t, blocks, 1)
	require.True(t, blocks[0].IsActive)

	proj := ProjectBlockUsage(blocks[0], now)
	require.NotNil(t, proj)
	// 100k tokens in 60 min, 4h of window left: 100k + 4*100k
	assert.Equal(t, 500_000, proj.TotalTokens)
	assert.InDelta(t, 10.00, proj.TotalCost, 1e-9)
	assert.InDelta(t, 240, proj.RemainingMinutes, 1e-9)
}

func TestProjectBlockUsageInactive(t *testing.T) {
	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	blocks := IdentifySessionBlocks([]types.UsageEntry{entryAt(start, 100)}, DefaultSessionDuration, start.Add(6*time.Hour))
	require.Len(t, blocks, 1)
	assert.Nil(t, ProjectBlockUsage(blocks[0], start.Add(6*time.Hour)))
}

func TestFindActiveBlock(t *testing.T) {
	blocks := []types.SessionBlock{
		{ID: "a"},
		{ID: "b", IsActive: true},
		{ID: "c"},
	}
	active := FindActiveBlock(blocks)
	require.NotNil(t, active)
	assert.Equal(t, "b", active.ID)

	assert.Nil(t, FindActiveBlock([]types.SessionBlock{{ID: "a"}}))
	assert.Nil(t, FindActiveBlock(nil))
}
