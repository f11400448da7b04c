package types

// CostMode selects how entry costs are derived.
type CostMode string

const (
	// CostModeAuto prefers the record's own cost field and computes from
	// the pricing table when it is absent.
	CostModeAuto CostMode = "auto"
	// CostModeCalculate always computes from the pricing table.
	CostModeCalculate CostMode = "calculate"
	// CostModeDisplay uses only costs present in the records.
	CostModeDisplay CostMode = "display"
)

func (m CostMode) Valid() bool {
	switch m {
	case CostModeAuto, CostModeCalculate, CostModeDisplay:
		return true
	}
	return false
}
