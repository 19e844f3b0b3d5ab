package analysis

import (
	"fmt"
	"math"
)

// MaxPositionSize caps any single suggested allocation
const MaxPositionSize = 0.15

var baseAllocation = map[RiskLevel]float64{
	RiskLow:    0.05,
	RiskMedium: 0.10,
	RiskHigh:   0.15,
}

// CalculatePositionSize suggests a monetary allocation for a new position.
// confidence is in percent; unknown risk levels size like MEDIUM.
func CalculatePositionSize(portfolioValue, confidence float64, level RiskLevel) (float64, error) {
	if portfolioValue < 0 {
		return 0, fmt.Errorf("%w: portfolio value must not be negative", ErrInvalidInput)
	}
	if confidence < 0 || confidence > 100 {
		return 0, fmt.Errorf("%w: confidence must be within [0,100]", ErrInvalidInput)
	}

	base, ok := baseAllocation[level]
	if !ok {
		base = baseAllocation[RiskMedium]
	}
	size := math.Min(base*confidence/100, MaxPositionSize)
	return round2(size * portfolioValue), nil
}
