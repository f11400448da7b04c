// Package calculator derives session blocks, burn rates and analytics
// rollups from parsed usage entries. All computations are pure functions
// over their inputs, recomputed from scratch on every call.
package calculator

import (
	"github.com/ccpulse/ccpulse/internal/pricing"
	"github.com/ccpulse/ccpulse/internal/types"
)

// AssignCosts fills in entry costs according to the cost mode and returns
// the same slice. Records that carried their own cost are preferred in
// auto mode, including an explicit 0.0; display mode never computes.
func AssignCosts(entries []types.UsageEntry, mode types.CostMode) []types.UsageEntry {
	for i := range entries {
		switch mode {
		case types.CostModeCalculate:
			entries[i].Cost = pricing.Cost(entries[i])
		case types.CostModeDisplay:
			// keep whatever the record carried, including zero
		default: // auto
			if !entries[i].HasCost {
				entries[i].Cost = pricing.Cost(entries[i])
			}
		}
	}
	return entries
}
