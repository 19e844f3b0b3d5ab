package analysis

import "fmt"

// Scorer turns a feature vector into a portfolio score in [0,100]
type Scorer interface {
	Score(features FeatureVector) int
}

// Options carries the optional inputs of a full analysis
type Options struct {
	// DailyPnL is today's portfolio change as a fraction.
	DailyPnL          float64
	TargetAllocations map[string]float64
}

// Result is everything the pipeline derives from one position list
type Result struct {
	Features        FeatureVector          `json:"features"`
	Score           int                    `json:"score"`
	Metrics         Metrics                `json:"metrics"`
	RiskReport      *RiskReport            `json:"risk_report"`
	Diversification *DiversificationReport `json:"diversification"`
	PositionRisks   []*PositionRiskReport  `json:"position_risks"`
	Alerts          []Alert                `json:"alerts"`
	Suggestions     []Suggestion           `json:"suggestions"`
}

// Analyzer runs the scoring and risk pipeline. It holds no per-request state and is safe for
// concurrent use as long as its Scorer is.
type Analyzer struct {
	scorer Scorer
}

// NewAnalyzer creates an Analyzer around a loaded score model
func NewAnalyzer(scorer Scorer) *Analyzer {
	return &Analyzer{scorer: scorer}
}

// Score extracts features and scores them
func (a *Analyzer) Score(holdings []Holding) (int, FeatureVector, error) {
	features, err := ExtractFeatures(holdings)
	if err != nil {
		return 0, features, err
	}
	return a.scorer.Score(features), features, nil
}

// Analyze runs every stage over the same holdings and combines the results
func (a *Analyzer) Analyze(holdings []Holding, opts Options) (*Result, error) {
	score, features, err := a.Score(holdings)
	if err != nil {
		return nil, fmt.Errorf("failed to score portfolio: %w", err)
	}

	metrics := CalculatePortfolioMetrics(holdings)
	report, err := GenerateRiskReport(holdings, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to generate risk report: %w", err)
	}

	diversification, err := AnalyzeDiversification(holdings)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze diversification: %w", err)
	}

	positionRisks, err := AssessAllPositions(holdings)
	if err != nil {
		return nil, err
	}

	alerts, err := CheckPortfolioRiskLimits(holdings, opts.DailyPnL)
	if err != nil {
		return nil, fmt.Errorf("failed to check risk limits: %w", err)
	}

	suggestions, err := GenerateRebalancingSuggestions(holdings, opts.TargetAllocations)
	if err != nil {
		return nil, fmt.Errorf("failed to generate rebalancing suggestions: %w", err)
	}

	return &Result{
		Features:        features,
		Score:           score,
		Metrics:         metrics,
		RiskReport:      report,
		Diversification: diversification,
		PositionRisks:   positionRisks,
		Alerts:          alerts,
		Suggestions:     suggestions,
	}, nil
}

// Symbols lists the holdings' symbols in order
func Symbols(holdings []Holding) []string {
	out := make([]string, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, h.Symbol)
	}
	return out
}
