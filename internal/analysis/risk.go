package analysis

import (
	"fmt"
	"math"
	"time"
)

// RiskLevel is a coarse severity bucket
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

func (l RiskLevel) rank() int {
	switch l {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// maxLevel returns the more severe of two levels
func maxLevel(a, b RiskLevel) RiskLevel {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Alert severities, types and actions emitted by CheckPortfolioRiskLimits
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"

	AlertDailyLossLimit    = "DAILY_LOSS_LIMIT"
	AlertConcentrationRisk = "CONCENTRATION_RISK"

	ActionStopTrading    = "STOP_TRADING"
	ActionReducePosition = "REDUCE_POSITION"
)

// Risk limits
const (
	MaxDailyLoss           = 0.05
	MaxConcentration       = 0.25
	PositionWeightHigh     = 0.20
	PositionWeightMedium   = 0.15
	PositionLossHigh       = -10.0
	PositionLossMedium     = -5.0
	AssumedDailyVolatility = 0.02
	MinDiversifiedHoldings = 3
)

// Z-scores for the supported VaR confidence levels
const (
	zScore95 = 1.645
	zScore99 = 2.33
)

// PositionRiskReport describes the risk of a single holding relative to its portfolio
type PositionRiskReport struct {
	Symbol          string    `json:"symbol"`
	RiskLevel       RiskLevel `json:"risk_level"`
	RiskFactors     []string  `json:"risk_factors"`
	PositionPercent float64   `json:"position_percent"`
	PnLPercent      float64   `json:"pnl_percent"`
	Recommendations []string  `json:"recommendations"`
	GeneratedAt     time.Time `json:"timestamp"`
}

// Alert is a portfolio-level risk limit breach
type Alert struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Symbol   string `json:"symbol,omitempty"`
	Message  string `json:"message"`
	Action   string `json:"action"`
}

// Metrics are the aggregate figures of a portfolio
type Metrics struct {
	TotalInvestment  float64 `json:"total_investment"`
	TotalValue       float64 `json:"total_value"`
	TotalPnL         float64 `json:"total_pnl"`
	TotalPnLPercent  float64 `json:"total_pnl_percent"`
	WinningPositions int     `json:"winning_positions"`
	LosingPositions  int     `json:"losing_positions"`
	WinRate          float64 `json:"win_rate"`
}

// RiskReport is the portfolio-level risk summary
type RiskReport struct {
	OverallRisk     RiskLevel `json:"overall_risk"`
	VaR95           float64   `json:"var_95"`
	VaR99           float64   `json:"var_99"`
	RiskFactors     []string  `json:"risk_factors"`
	Recommendations []string  `json:"recommendations"`
	MaxDrawdown     float64   `json:"max_drawdown"`
	PortfolioBeta   float64   `json:"portfolio_beta"`
	SharpeRatio     float64   `json:"sharpe_ratio"`
	GeneratedAt     time.Time `json:"timestamp"`
}

// DiversificationReport scores how concentrated a portfolio is
type DiversificationReport struct {
	RiskLevel            RiskLevel `json:"risk_level"`
	DiversificationScore int       `json:"diversification_score"`
	MaxPositionPercent   float64   `json:"max_position_percent"`
	Recommendations      []string  `json:"recommendations"`
}

// AssessPositionRisk grades one position on two independent ladders, portfolio weight and
// unrealized loss, and reports the more severe of the two.
func AssessPositionRisk(symbol string, entryPrice, currentPrice, quantity, portfolioValue float64) (*PositionRiskReport, error) {
	for _, v := range []float64{entryPrice, currentPrice, quantity, portfolioValue} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s has a non-finite input", ErrInvalidInput, symbol)
		}
	}
	if portfolioValue <= 0 {
		return nil, fmt.Errorf("%w: portfolio value must be positive", ErrInvalidInput)
	}
	if entryPrice <= 0 {
		return nil, fmt.Errorf("%w: entry price must be positive", ErrInvalidInput)
	}
	if currentPrice < 0 {
		return nil, fmt.Errorf("%w: current price must not be negative", ErrInvalidInput)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}

	weight := quantity * currentPrice / portfolioValue
	pnlPercent := (currentPrice - entryPrice) / entryPrice * 100

	level := RiskLow
	factors := []string{}

	switch {
	case weight > PositionWeightHigh:
		factors = append(factors, "Position size exceeds 20% of portfolio")
		level = maxLevel(level, RiskHigh)
	case weight > PositionWeightMedium:
		factors = append(factors, "Position size above recommended 15%")
		level = maxLevel(level, RiskMedium)
	}

	switch {
	case pnlPercent < PositionLossHigh:
		factors = append(factors, fmt.Sprintf("Position down %.1f%%", math.Abs(pnlPercent)))
		level = maxLevel(level, RiskHigh)
	case pnlPercent < PositionLossMedium:
		factors = append(factors, fmt.Sprintf("Position down %.1f%%", math.Abs(pnlPercent)))
		level = maxLevel(level, RiskMedium)
	}

	return &PositionRiskReport{
		Symbol:          symbol,
		RiskLevel:       level,
		RiskFactors:     factors,
		PositionPercent: round2(weight * 100),
		PnLPercent:      round2(pnlPercent),
		Recommendations: positionRecommendations(level),
		GeneratedAt:     time.Now(),
	}, nil
}

func positionRecommendations(level RiskLevel) []string {
	switch level {
	case RiskHigh:
		return []string{
			"Consider reducing position size immediately",
			"Set tight stop-loss orders",
			"Monitor position closely",
		}
	case RiskMedium:
		return []string{
			"Review position sizing",
			"Consider setting stop-loss orders",
			"Monitor for further deterioration",
		}
	default:
		return []string{
			"Maintain current risk management",
			"Continue monitoring position",
		}
	}
}

// AssessAllPositions runs AssessPositionRisk for every holding against the portfolio total
func AssessAllPositions(holdings []Holding) ([]*PositionRiskReport, error) {
	if err := ValidateHoldings(holdings); err != nil {
		return nil, err
	}
	total, err := totalValue(holdings)
	if err != nil {
		return nil, err
	}

	reports := make([]*PositionRiskReport, 0, len(holdings))
	for _, h := range holdings {
		r, err := AssessPositionRisk(h.Symbol, h.BuyPrice, h.CurrentPrice, h.Quantity, total)
		if err != nil {
			return nil, fmt.Errorf("failed to assess %s: %w", h.Symbol, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// CheckPortfolioRiskLimits reports every breached limit. dailyPnL is a fraction (-0.06 is a 6% loss).
func CheckPortfolioRiskLimits(holdings []Holding, dailyPnL float64) ([]Alert, error) {
	if err := ValidateHoldings(holdings); err != nil {
		return nil, err
	}

	alerts := []Alert{}
	if dailyPnL < -MaxDailyLoss {
		alerts = append(alerts, Alert{
			Type:     AlertDailyLossLimit,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("Daily loss of %.1f%% exceeds %.1f%% limit", math.Abs(dailyPnL)*100, MaxDailyLoss*100),
			Action:   ActionStopTrading,
		})
	}

	if len(holdings) == 0 {
		return alerts, nil
	}

	total, err := totalValue(holdings)
	if err != nil {
		return nil, err
	}
	for _, h := range holdings {
		weight := h.CurrentValue() / total
		if weight > MaxConcentration {
			alerts = append(alerts, Alert{
				Type:     AlertConcentrationRisk,
				Severity: SeverityHigh,
				Symbol:   h.Symbol,
				Message:  fmt.Sprintf("%s represents %.1f%% of portfolio", h.Symbol, weight*100),
				Action:   ActionReducePosition,
			})
		}
	}
	return alerts, nil
}

// CalculateVaR is a parametric value-at-risk with a constant daily volatility.
// Only a confidence level of exactly 0.95 uses the 95% z-score; every other level is treated as 99%.
func CalculateVaR(holdings []Holding, confidenceLevel float64, timeHorizon float64) (float64, error) {
	if len(holdings) == 0 {
		return 0, fmt.Errorf("%w: cannot compute VaR of an empty portfolio", ErrInvalidInput)
	}
	if timeHorizon < 0 {
		return 0, fmt.Errorf("%w: time horizon must not be negative", ErrInvalidInput)
	}
	if err := ValidateHoldings(holdings); err != nil {
		return 0, err
	}
	total, err := totalValue(holdings)
	if err != nil {
		return 0, err
	}

	z := zScore99
	if confidenceLevel == 0.95 {
		z = zScore95
	}
	return round2(total * AssumedDailyVolatility * z * math.Sqrt(timeHorizon)), nil
}

// CalculatePortfolioMetrics aggregates investment, value and win/loss counts
func CalculatePortfolioMetrics(holdings []Holding) Metrics {
	var m Metrics
	if len(holdings) == 0 {
		return m
	}

	for _, h := range holdings {
		m.TotalInvestment += h.Investment()
		m.TotalValue += h.CurrentValue()
		switch pnl := h.Profit(); {
		case pnl > 0:
			m.WinningPositions++
		case pnl < 0:
			m.LosingPositions++
		}
	}
	m.TotalPnL = m.TotalValue - m.TotalInvestment
	if m.TotalInvestment > 0 {
		m.TotalPnLPercent = round2(m.TotalPnL / m.TotalInvestment * 100)
	}
	m.TotalInvestment = round2(m.TotalInvestment)
	m.TotalValue = round2(m.TotalValue)
	m.TotalPnL = round2(m.TotalPnL)
	m.WinRate = round1(float64(m.WinningPositions) / float64(len(holdings)) * 100)
	return m
}

// GenerateRiskReport summarises portfolio risk. The overall level is driven by aggregate P&L only;
// per-position risk is reported separately by AssessAllPositions.
func GenerateRiskReport(holdings []Holding, metrics Metrics) (*RiskReport, error) {
	var95, err := CalculateVaR(holdings, 0.95, 1)
	if err != nil {
		return nil, err
	}
	var99, err := CalculateVaR(holdings, 0.99, 1)
	if err != nil {
		return nil, err
	}

	pnl := metrics.TotalPnLPercent
	overall := RiskLow
	switch {
	case pnl < -10:
		overall = RiskHigh
	case pnl < -5:
		overall = RiskMedium
	}

	factors := []string{}
	if len(holdings) < MinDiversifiedHoldings {
		factors = append(factors, "Low diversification - less than 3 positions")
	}
	if pnl < -5 {
		factors = append(factors, fmt.Sprintf("Portfolio down %.1f%%", math.Abs(pnl)))
	}

	return &RiskReport{
		OverallRisk:     overall,
		VaR95:           var95,
		VaR99:           var99,
		RiskFactors:     factors,
		Recommendations: portfolioRecommendations(overall),
		MaxDrawdown:     math.Abs(math.Min(0, pnl)),
		PortfolioBeta:   1.0,
		SharpeRatio:     0.0,
		GeneratedAt:     time.Now(),
	}, nil
}

func portfolioRecommendations(level RiskLevel) []string {
	switch level {
	case RiskHigh:
		return []string{
			"Consider reducing overall exposure",
			"Implement strict stop-loss discipline",
			"Review and rebalance portfolio immediately",
		}
	case RiskMedium:
		return []string{
			"Monitor positions closely",
			"Consider hedging strategies",
			"Review position sizing",
		}
	default:
		return []string{
			"Maintain current risk management approach",
			"Continue regular portfolio monitoring",
		}
	}
}

// AnalyzeDiversification grades concentration by the largest position and scores breadth at
// 20 points per holding.
func AnalyzeDiversification(holdings []Holding) (*DiversificationReport, error) {
	if len(holdings) == 0 {
		return &DiversificationReport{
			RiskLevel:            RiskLow,
			DiversificationScore: 100,
			Recommendations:      []string{"Start building positions"},
		}, nil
	}
	if err := ValidateHoldings(holdings); err != nil {
		return nil, err
	}
	total, err := totalValue(holdings)
	if err != nil {
		return nil, err
	}

	var maxPercent float64
	for _, h := range holdings {
		maxPercent = math.Max(maxPercent, h.CurrentValue()/total*100)
	}

	level := RiskLow
	switch {
	case maxPercent > 25:
		level = RiskHigh
	case maxPercent > 15:
		level = RiskMedium
	}

	score := len(holdings) * 20
	if score > 100 {
		score = 100
	}

	recs := []string{}
	if maxPercent > 20 {
		recs = append(recs, "Reduce concentration in largest position")
	}
	if len(holdings) < 5 {
		recs = append(recs, "Consider adding more positions for diversification")
	}
	if score < 60 {
		recs = append(recs, "Increase portfolio diversification across sectors")
	}

	return &DiversificationReport{
		RiskLevel:            level,
		DiversificationScore: score,
		MaxPositionPercent:   round2(maxPercent),
		Recommendations:      recs,
	}, nil
}
