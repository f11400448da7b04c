package calculator

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/ccpulse/ccpulse/internal/types"
)

// Calendar grouping uses a fixed UTC calendar everywhere, matching the
// segmenter's UTC hour flooring, so block boundaries and rollup
// boundaries cannot drift apart across call sites.

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func distinctModels(entries []types.UsageEntry) []string {
	models := lo.Uniq(lo.Map(entries, func(e types.UsageEntry, _ int) string {
		return e.Model
	}))
	sort.Strings(models)
	return models
}

func sumCounts(entries []types.UsageEntry) types.TokenCounts {
	var tc types.TokenCounts
	for _, e := range entries {
		tc.Add(e)
	}
	return tc
}

func sumCost(entries []types.UsageEntry) float64 {
	return lo.SumBy(entries, func(e types.UsageEntry) float64 { return e.Cost })
}

// DailyRollup groups entries into UTC calendar days, ascending.
func DailyRollup(entries []types.UsageEntry) []types.DailyUsage {
	groups := lo.GroupBy(entries, func(e types.UsageEntry) time.Time {
		return dayStart(e.Timestamp)
	})

	days := make([]types.DailyUsage, 0, len(groups))
	for date, group := range groups {
		days = append(days, types.DailyUsage{
			Date:         date,
			TokenCounts:  sumCounts(group),
			TotalCost:    sumCost(group),
			RequestCount: len(group),
			Models:       distinctModels(group),
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

// MonthlyRollup groups entries into UTC calendar months, ascending.
func MonthlyRollup(entries []types.UsageEntry) []types.MonthlyUsage {
	groups := lo.GroupBy(entries, func(e types.UsageEntry) time.Time {
		return monthStart(e.Timestamp)
	})

	months := make([]types.MonthlyUsage, 0, len(groups))
	for month, group := range groups {
		months = append(months, types.MonthlyUsage{
			Month:        month,
			TokenCounts:  sumCounts(group),
			TotalCost:    sumCost(group),
			RequestCount: len(group),
			Models:       distinctModels(group),
		})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month.Before(months[j].Month) })
	return months
}

// ModelRollup groups entries per model, most expensive first.
func ModelRollup(entries []types.UsageEntry) []types.ModelUsage {
	groups := lo.GroupBy(entries, func(e types.UsageEntry) string { return e.Model })

	models := make([]types.ModelUsage, 0, len(groups))
	for model, group := range groups {
		models = append(models, types.ModelUsage{
			Model:        model,
			TokenCounts:  sumCounts(group),
			TotalCost:    sumCost(group),
			RequestCount: len(group),
		})
	}
	sort.Slice(models, func(i, j int) bool {
		if models[i].TotalCost != models[j].TotalCost {
			return models[i].TotalCost > models[j].TotalCost
		}
		return models[i].Model < models[j].Model
	})
	return models
}

// SessionRollup groups entries by session id, ascending by start time.
func SessionRollup(entries []types.UsageEntry) []types.SessionUsage {
	groups := lo.GroupBy(entries, func(e types.UsageEntry) string { return e.SessionID })

	sessions := make([]types.SessionUsage, 0, len(groups))
	for sessionID, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
		start := group[0].Timestamp
		end := group[len(group)-1].Timestamp
		sessions = append(sessions, types.SessionUsage{
			SessionID:    sessionID,
			StartTime:    start,
			EndTime:      end,
			Duration:     end.Sub(start),
			TokenCounts:  sumCounts(group),
			TotalCost:    sumCost(group),
			RequestCount: len(group),
			Models:       distinctModels(group),
		})
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
	return sessions
}

// RangeCost sums cost over entries whose timestamp falls in [from, to).
func RangeCost(entries []types.UsageEntry, from, to time.Time) float64 {
	return lo.SumBy(entries, func(e types.UsageEntry) float64 {
		if e.Timestamp.Before(from) || !e.Timestamp.Before(to) {
			return 0
		}
		return e.Cost
	})
}

// TokensPerHour is the average token throughput of a block over its
// actual activity span. Zero for gaps and zero-elapsed blocks.
func TokensPerHour(block types.SessionBlock) float64 {
	if block.IsGap || len(block.Entries) == 0 || block.ActualEndTime == nil {
		return 0
	}
	elapsed := block.ActualEndTime.Sub(block.Entries[0].Timestamp).Hours()
	if elapsed <= 0 {
		return 0
	}
	return float64(block.TokenCounts.GetTotal()) / elapsed
}

// AverageCostPerRequest is the mean entry cost for one model. Zero when
// the model has no entries.
func AverageCostPerRequest(entries []types.UsageEntry, model string) float64 {
	matching := lo.Filter(entries, func(e types.UsageEntry, _ int) bool {
		return e.Model == model
	})
	if len(matching) == 0 {
		return 0
	}
	return sumCost(matching) / float64(len(matching))
}

// MostExpensiveSession returns the session with the highest total cost,
// or nil when there are no entries.
func MostExpensiveSession(entries []types.UsageEntry) *types.SessionUsage {
	sessions := SessionRollup(entries)
	if len(sessions) == 0 {
		return nil
	}
	max := lo.MaxBy(sessions, func(a, b types.SessionUsage) bool {
		return a.TotalCost > b.TotalCost
	})
	return &max
}

// MostActiveModel returns the model with the most requests (not the most
// tokens), or "" when there are no entries.
func MostActiveModel(entries []types.UsageEntry) string {
	models := ModelRollup(entries)
	if len(models) == 0 {
		return ""
	}
	top := lo.MaxBy(models, func(a, b types.ModelUsage) bool {
		return a.RequestCount > b.RequestCount
	})
	return top.Model
}
