package calculator

import (
	"sort"
	"time"

	"github.com/ccpulse/ccpulse/internal/types"
)

const (
	// DefaultSessionDuration is the billing window length.
	DefaultSessionDuration = 5 * time.Hour
	// ActivityWindow is how recent the last entry must be for a block to
	// count as active. A chronologically current block with no entry in
	// this window is idle and must not show a live burn rate.
	ActivityWindow = 5 * time.Minute
)

// floorToHour floors a timestamp to the top of its UTC hour. Block
// boundaries are human-readable hour marks, not a rolling window.
func floorToHour(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
}

// IdentifySessionBlocks partitions a time-ordered entry stream into
// fixed-duration billing blocks and synthetic gap blocks. A block closes
// when an entry arrives more than one window after the block start, or
// more than one window after the previous entry; the latter case also
// emits a gap block when the idle span is positive. now is injectable so
// activity detection is deterministic under test.
func IdentifySessionBlocks(entries []types.UsageEntry, window time.Duration, now time.Time) []types.SessionBlock {
	if len(entries) == 0 {
		return []types.SessionBlock{}
	}
	if window <= 0 {
		window = DefaultSessionDuration
	}

	sorted := make([]types.UsageEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	blocks := []types.SessionBlock{}
	blockStart := floorToHour(sorted[0].Timestamp)
	blockEntries := []types.UsageEntry{sorted[0]}

	for _, entry := range sorted[1:] {
		last := blockEntries[len(blockEntries)-1]
		sinceBlockStart := entry.Timestamp.Sub(blockStart)
		sinceLastEntry := entry.Timestamp.Sub(last.Timestamp)

		if sinceBlockStart > window || sinceLastEntry > window {
			blocks = append(blocks, createBlock(blockStart, blockEntries, now, window))

			if sinceLastEntry > window {
				if gap := createGapBlock(last.Timestamp, entry.Timestamp, window); gap != nil {
					blocks = append(blocks, *gap)
				}
			}

			blockStart = floorToHour(entry.Timestamp)
			blockEntries = []types.UsageEntry{entry}
		} else {
			blockEntries = append(blockEntries, entry)
		}
	}

	blocks = append(blocks, createBlock(blockStart, blockEntries, now, window))
	return blocks
}

func createBlock(startTime time.Time, entries []types.UsageEntry, now time.Time, window time.Duration) types.SessionBlock {
	endTime := startTime.Add(window)

	var actualEndTime *time.Time
	if len(entries) > 0 {
		last := entries[len(entries)-1].Timestamp
		actualEndTime = &last
	}

	// Active requires both: now inside the nominal window, and the most
	// recent entry within the activity window of now.
	isActive := false
	if actualEndTime != nil {
		inWindow := !now.Before(startTime) && now.Before(endTime)
		recent := now.Sub(*actualEndTime) <= ActivityWindow
		isActive = inWindow && recent
	}

	tokenCounts := types.TokenCounts{}
	costUSD := 0.0
	modelSet := make(map[string]struct{})
	for _, entry := range entries {
		tokenCounts.Add(entry)
		costUSD += entry.Cost
		if entry.Model != "" {
			modelSet[entry.Model] = struct{}{}
		}
	}

	models := make([]string, 0, len(modelSet))
	for model := range modelSet {
		models = append(models, model)
	}
	sort.Strings(models)

	return types.SessionBlock{
		ID:            startTime.Format(time.RFC3339),
		StartTime:     startTime,
		EndTime:       endTime,
		ActualEndTime: actualEndTime,
		IsActive:      isActive,
		IsGap:         false,
		Entries:       entries,
		TokenCounts:   tokenCounts,
		CostUSD:       costUSD,
		Models:        models,
	}
}

// createGapBlock emits a synthetic block spanning the inactivity between
// one window's last entry and the next activity. Returns nil for
// non-positive spans, which happens when the close was triggered by the
// block-start condition alone.
func createGapBlock(lastActivity, nextActivity time.Time, window time.Duration) *types.SessionBlock {
	if nextActivity.Sub(lastActivity) <= window {
		return nil
	}

	gapStart := lastActivity.Add(window)
	return &types.SessionBlock{
		ID:          "gap-" + gapStart.Format(time.RFC3339),
		StartTime:   gapStart,
		EndTime:     nextActivity,
		IsActive:    false,
		IsGap:       true,
		Entries:     []types.UsageEntry{},
		TokenCounts: types.TokenCounts{},
		Models:      []string{},
	}
}

// CalculateBurnRate computes the consumption rate for a block. Elapsed
// time runs from the first entry to the last entry, or to now for active
// blocks. Nil for gap blocks and zero-elapsed blocks.
func CalculateBurnRate(block types.SessionBlock, now time.Time) *types.BurnRate {
	if block.IsGap || len(block.Entries) == 0 {
		return nil
	}

	first := block.Entries[0].Timestamp
	end := block.Entries[len(block.Entries)-1].Timestamp
	if block.IsActive && now.After(end) {
		end = now
	}

	elapsedMinutes := end.Sub(first).Minutes()
	if elapsedMinutes <= 0 {
		return nil
	}

	totalTokens := float64(block.TokenCounts.GetTotal())
	nonCacheTokens := float64(block.TokenCounts.InputTokens + block.TokenCounts.OutputTokens)

	return &types.BurnRate{
		TokensPerMinute:             totalTokens / elapsedMinutes,
		TokensPerMinuteForIndicator: nonCacheTokens / elapsedMinutes,
		CostPerHour:                 block.CostUSD / elapsedMinutes * 60,
	}
}

// ProjectBlockUsage extrapolates an active block's totals to the end of
// its window at the current burn rate. Nil for inactive or gap blocks.
func ProjectBlockUsage(block types.SessionBlock, now time.Time) *types.ProjectedUsage {
	if !block.IsActive || block.IsGap {
		return nil
	}
	burnRate := CalculateBurnRate(block, now)
	if burnRate == nil {
		return nil
	}

	remainingMinutes := block.EndTime.Sub(now).Minutes()
	if remainingMinutes < 0 {
		remainingMinutes = 0
	}

	additionalTokens := int(burnRate.TokensPerMinute * remainingMinutes)
	additionalCost := burnRate.CostPerHour / 60 * remainingMinutes

	return &types.ProjectedUsage{
		TotalTokens:      block.TokenCounts.GetTotal() + additionalTokens,
		TotalCost:        block.CostUSD + additionalCost,
		RemainingMinutes: remainingMinutes,
	}
}

// FindActiveBlock returns the currently active block, if any.
func FindActiveBlock(blocks []types.SessionBlock) *types.SessionBlock {
	for i := range blocks {
		if blocks[i].IsActive {
			return &blocks[i]
		}
	}
	return nil
}
