package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccpulse/ccpulse/internal/types"
)

func fixtureEntries() []types.UsageEntry {
	day1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	day3 := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	return []types.UsageEntry{
		{Timestamp: day1, Model: "claude-sonnet-4-5", InputTokens: 100, OutputTokens: 50, Cost: 1.00, SessionID: "s1"},
		{Timestamp: day1.Add(time.Hour), Model: "claude-opus-4-1", InputTokens: 200, OutputTokens: 100, Cost: 5.00, SessionID: "s1"},
		{Timestamp: day2, Model: "claude-sonnet-4-5", InputTokens: 300, OutputTokens: 150, Cost: 2.00, SessionID: "s2"},
		{Timestamp: day3, Model: "claude-sonnet-4-5", InputTokens: 400, OutputTokens: 200, Cost: 3.00, SessionID: "s3"},
	}
}

func TestDailyRollup(t *testing.T) {
	days := DailyRollup(fixtureEntries())
	require.Len(t, days, 3)

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), days[0].Date)
	assert.Equal(t, 2, days[0].RequestCount)
	assert.Equal(t, 450, days[0].TokenCounts.GetTotal())
	assert.InDelta(t, 6.00, days[0].TotalCost, 1e-9)
	assert.Equal(t, []string{"claude-opus-4-1", "claude-sonnet-4-5"}, days[0].Models)
}

func TestDailyAndMonthlyRollupsAgree(t *testing.T) {
	entries := fixtureEntries()
	days := DailyRollup(entries)
	months := MonthlyRollup(entries)
	require.Len(t, months, 2)

	var dailyCost float64
	var dailyTokens int
	for _, d := range days {
		dailyCost += d.TotalCost
		dailyTokens += d.TokenCounts.GetTotal()
	}
	var monthlyCost float64
	var monthlyTokens int
	for _, m := range months {
		monthlyCost += m.TotalCost
		monthlyTokens += m.TokenCounts.GetTotal()
	}

	assert.InDelta(t, dailyCost, monthlyCost, 1e-9)
	assert.Equal(t, dailyTokens, monthlyTokens)
}

func TestModelRollupOrdersByCost(t *testing.T) {
	models := ModelRollup(fixtureEntries())
	require.Len(t, models, 2)
	assert.Equal(t, "claude-sonnet-4-5", models[0].Model)
	assert.InDelta(t, 6.00, models[0].TotalCost, 1e-9)
	assert.Equal(t, 3, models[0].RequestCount)
	assert.Equal(t, "claude-opus-4-1", models[1].Model)
}

func TestSessionRollup(t *testing.T) {
	sessions := SessionRollup(fixtureEntries())
	require.Len(t, sessions, 3)

	first := sessions[0]
	assert.Equal(t, "s1", first.SessionID)
	assert.Equal(t, time.Hour, first.Duration)
	assert.Equal(t, 2, first.RequestCount)
	assert.InDelta(t, 6.00, first.TotalCost, 1e-9)
}

func TestRangeCost(t *testing.T) {
	entries := fixtureEntries()
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	// half-open interval: day2's entry at exactly `to` is excluded
	assert.InDelta(t, 6.00, RangeCost(entries, from, to), 1e-9)
	assert.InDelta(t, 11.00, RangeCost(entries, from, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)), 1e-9)
	assert.InDelta(t, 0, RangeCost(nil, from, to), 1e-9)
}

func TestTokensPerHour(t *testing.T) {
	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	entries := []types.UsageEntry{
		entryAt(start, 1000),
		entryAt(start.Add(30*time.Minute), 1000),
	}
	blocks := IdentifySessionBlocks(entries, DefaultSessionDuration, start.Add(6*time.Hour))
	require.Len(t, blocks, 1)

	assert.InDelta(t, 4000, TokensPerHour(blocks[0]), 1e-9)
	assert.Zero(t, TokensPerHour(types.SessionBlock{IsGap: true}))
}

func TestAverageCostPerRequest(t *testing.T) {
	entries := fixtureEntries()
	assert.InDelta(t, 2.00, AverageCostPerRequest(entries, "claude-sonnet-4-5"), 1e-9)
	assert.Zero(t, AverageCostPerRequest(entries, "no-such-model"))
}

func TestMostExpensiveSession(t *testing.T) {
	s := MostExpensiveSession(fixtureEntries())
	require.NotNil(t, s)
	assert.Equal(t, "s1", s.SessionID)

	assert.Nil(t, MostExpensiveSession(nil))
}

func TestMostActiveModelCountsRequestsNotTokens(t *testing.T) {
	entries := []types.UsageEntry{
		{Timestamp: time.Now(), Model: "big", InputTokens: 1_000_000, Cost: 10},
		{Timestamp: time.Now(), Model: "busy", InputTokens: 10, Cost: 0.1},
		{Timestamp: time.Now(), Model: "busy", InputTokens: 10, Cost: 0.1},
	}
	assert.Equal(t, "busy", MostActiveModel(entries))
	assert.Equal(t, "", MostActiveModel(nil))
}
