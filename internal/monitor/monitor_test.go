package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBurnIndicator(t *testing.T) {
	assert.Contains(t, burnIndicator(1500), "HIGH")
	assert.Contains(t, burnIndicator(1000), "MODERATE", "threshold itself is not HIGH")
	assert.Contains(t, burnIndicator(700), "MODERATE")
	assert.Contains(t, burnIndicator(500), "NORMAL")
	assert.Contains(t, burnIndicator(0), "NORMAL")
}

func TestFormatTokensShort(t *testing.T) {
	assert.Equal(t, "999", formatTokensShort(999))
	assert.Equal(t, "1.5k", formatTokensShort(1500))
	assert.Equal(t, "2.5M", formatTokensShort(2_500_000))
}

func TestGaugeColorRamp(t *testing.T) {
	// out-of-range inputs clamp to the endpoints
	assert.Equal(t, gaugeColor(0), gaugeColor(-10))
	assert.Equal(t, gaugeColor(100), gaugeColor(250))
	// the ramp actually moves
	assert.NotEqual(t, gaugeColor(0), gaugeColor(50))
	assert.NotEqual(t, gaugeColor(50), gaugeColor(100))
}

func TestRenderGaugeNoColor(t *testing.T) {
	m := model{options: Options{NoColor: true}}
	bar := m.renderGauge(50, 10)
	assert.Equal(t, "[█████░░░░░]", bar)
}
