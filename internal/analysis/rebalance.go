package analysis

import "fmt"

// Suggestion actions and priorities
const (
	ActionReduce = "REDUCE"
	ActionReview = "REVIEW"

	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
)

const (
	overweightPercent     = 20.0
	underperformerPercent = -10.0
)

// Suggestion is one rebalancing action for a symbol
type Suggestion struct {
	Symbol   string `json:"symbol"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
	Priority string `json:"priority"`
}

// GenerateRebalancingSuggestions flags overweight and underperforming positions, in input order.
// targetAllocations is accepted but does not influence the result yet.
func GenerateRebalancingSuggestions(holdings []Holding, targetAllocations map[string]float64) ([]Suggestion, error) {
	suggestions := []Suggestion{}
	if len(holdings) == 0 {
		return suggestions, nil
	}
	if err := ValidateHoldings(holdings); err != nil {
		return nil, err
	}
	total, err := totalValue(holdings)
	if err != nil {
		return nil, err
	}

	for _, h := range holdings {
		current := h.CurrentValue() * 100 / total
		if current > overweightPercent {
			suggestions = append(suggestions, Suggestion{
				Symbol:   h.Symbol,
				Action:   ActionReduce,
				Reason:   fmt.Sprintf("Overweight at %.1f%%, consider reducing to <20%%", current),
				Priority: PriorityHigh,
			})
		}

		if pnl := h.PnLPercent(); pnl < underperformerPercent {
			suggestions = append(suggestions, Suggestion{
				Symbol:   h.Symbol,
				Action:   ActionReview,
				Reason:   fmt.Sprintf("Underperforming at %.1f%%", pnl),
				Priority: PriorityMedium,
			})
		}
	}
	return suggestions, nil
}
