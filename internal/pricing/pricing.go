// Package pricing maps model identifiers to per-million-token rates and
// computes entry costs. The table is static: lookups never touch the
// network and carry no state.
package pricing

import (
	"strings"

	"github.com/ccpulse/ccpulse/internal/types"
)

// ModelPricing holds per-million-token prices for a model.
type ModelPricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// defaultPricing maps model base names (date suffix stripped) to rates.
var defaultPricing = map[string]ModelPricing{
	"claude-opus-4-1":   {InputPerMTok: 15.00, OutputPerMTok: 75.00},
	"claude-opus-4":     {InputPerMTok: 15.00, OutputPerMTok: 75.00},
	"claude-3-opus":     {InputPerMTok: 15.00, OutputPerMTok: 75.00},
	"claude-sonnet-4-5": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-sonnet-4":   {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-3-7-sonnet": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-3-5-sonnet": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-haiku-4-5":  {InputPerMTok: 1.00, OutputPerMTok: 5.00},
	"claude-3-5-haiku":  {InputPerMTok: 0.80, OutputPerMTok: 4.00},
	"claude-3-haiku":    {InputPerMTok: 0.25, OutputPerMTok: 1.25},
}

// DefaultRate is used for unknown models. Sonnet-class rates are the
// dominant usage pattern, so they are the least-wrong default.
var DefaultRate = ModelPricing{InputPerMTok: 3.00, OutputPerMTok: 15.00}

// classRates matches model families when the exact base name is absent.
var classRates = []struct {
	substr string
	rate   ModelPricing
}{
	{"opus", ModelPricing{InputPerMTok: 15.00, OutputPerMTok: 75.00}},
	{"haiku", ModelPricing{InputPerMTok: 0.80, OutputPerMTok: 4.00}},
	{"sonnet", ModelPricing{InputPerMTok: 3.00, OutputPerMTok: 15.00}},
}

// NormalizeModelName strips date suffixes from model identifiers,
// e.g. "claude-sonnet-4-5-20250929" -> "claude-sonnet-4-5".
func NormalizeModelName(raw string) string {
	if _, ok := defaultPricing[raw]; ok {
		return raw
	}
	parts := strings.Split(raw, "-")
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if len(last) >= 8 && isAllDigits(last) {
			return strings.Join(parts[:len(parts)-1], "-")
		}
	}
	return raw
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Rate returns the pricing for a model, falling back to family matching
// and then to DefaultRate for unknown models.
func Rate(model string) ModelPricing {
	if p, ok := defaultPricing[NormalizeModelName(model)]; ok {
		return p
	}
	lower := strings.ToLower(model)
	for _, c := range classRates {
		if strings.Contains(lower, c.substr) {
			return c.rate
		}
	}
	return DefaultRate
}

// Cost computes the cost of one entry. Cache-creation and cache-read
// tokens bill at the input rate (effective input).
func Cost(e types.UsageEntry) float64 {
	rate := Rate(e.Model)
	input := float64(e.EffectiveInputTokens())
	output := float64(e.OutputTokens)
	return input/1e6*rate.InputPerMTok + output/1e6*rate.OutputPerMTok
}
