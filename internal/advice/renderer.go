// Package advice turns structured analysis results into human-readable text.
// Rendered text is presentation only and is never parsed back into numbers.
package advice

import (
	"context"
	"fmt"
	"strings"

	"github.com/trogers1052/portfolio-advisor/internal/analysis"
)

// Renderer produces narrative text for scores and risk reports
type Renderer interface {
	RenderExplanation(ctx context.Context, score int, symbols []string) (string, error)
	RenderRiskNarrative(ctx context.Context, report *analysis.RiskReport) (string, error)
}

const explanationSystemPrompt = `You are a portfolio advisor. You receive a portfolio health score from 0 to 100
and the list of held symbols. Explain in three to five sentences what the score suggests about
diversification and concentration, and give one concrete next step. Do not invent prices or numbers
that were not provided.`

const riskSystemPrompt = `You are a risk analyst. You receive a structured portfolio risk report.
Summarize it in plain language for a retail investor in at most one short paragraph followed by the
recommendations as a bulleted list. Use only the figures provided.`

func explanationPrompt(score int, symbols []string) string {
	held := "none"
	if len(symbols) > 0 {
		held = strings.Join(symbols, ", ")
	}
	return fmt.Sprintf("Portfolio score: %d/100\nHoldings: %s", score, held)
}

func riskPrompt(report *analysis.RiskReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall risk: %s\n", report.OverallRisk)
	fmt.Fprintf(&b, "1-day VaR (95%%): %.2f\n", report.VaR95)
	fmt.Fprintf(&b, "1-day VaR (99%%): %.2f\n", report.VaR99)
	fmt.Fprintf(&b, "Max drawdown: %.2f%%\n", report.MaxDrawdown)
	if len(report.RiskFactors) > 0 {
		b.WriteString("Risk factors:\n")
		for _, f := range report.RiskFactors {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	if len(report.Recommendations) > 0 {
		b.WriteString("Recommendations:\n")
		for _, r := range report.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return b.String()
}
