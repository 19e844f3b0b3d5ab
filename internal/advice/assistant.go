package advice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trogers1052/portfolio-advisor/internal/models"
)

var (
	// ErrUnknownMarket is returned for a market without a summary prompt
	ErrUnknownMarket = errors.New("unknown market")
	// ErrEmptyPrompt is returned when a question or query is blank
	ErrEmptyPrompt = errors.New("prompt must not be empty")
)

// Assistant answers free-form market and personal finance questions
type Assistant interface {
	MarketSummary(ctx context.Context, market string) (string, error)
	Answer(ctx context.Context, question string) (string, error)
	WalletSuggestion(ctx context.Context, query string, summary *models.WalletSummary) (string, error)
}

var _ Assistant = (*OpenAIRenderer)(nil)

const assistantSystemPrompt = `You are a friendly market and personal finance assistant. Answer briefly in plain
language. You do not have live prices; say so instead of inventing figures.`

var marketPrompts = map[string]string{
	models.KindStocks: `Give a short, simple, human-friendly summary of today's global market conditions in 2 lines.
Mention:
- stock market mood (bullish / bearish)
- tech sector vibe
- any notable trend
Make it conversational, like you're answering: "How's the market today?"`,
	models.KindCrypto: `Provide a simple, conversational explanation of today's cryptocurrency market.
Mention:
- Bitcoin sentiment (bullish/bearish)
- Ethereum condition
- Altcoin trends
- Market mood summary
Keep it friendly and short.`,
}

func marketPrompt(market string) (string, error) {
	prompt, ok := marketPrompts[market]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMarket, market)
	}
	return prompt, nil
}

func walletPrompt(query string, summary *models.WalletSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Financial suggestion based on: %s\n", query)
	if summary != nil {
		fmt.Fprintf(&b, "Since %s:\n", summary.Since.Format("2006-01-02"))
		fmt.Fprintf(&b, "- income: %s\n", summary.Income.StringFixed(2))
		fmt.Fprintf(&b, "- expense: %s\n", summary.Expense.StringFixed(2))
		fmt.Fprintf(&b, "- saving: %s\n", summary.Saving.StringFixed(2))
	}
	return b.String()
}

// MarketSummary describes today's mood for the stocks or crypto market
func (r *OpenAIRenderer) MarketSummary(ctx context.Context, market string) (string, error) {
	prompt, err := marketPrompt(market)
	if err != nil {
		return "", err
	}
	return r.complete(ctx, assistantSystemPrompt, prompt)
}

// Answer replies to a free-form question
func (r *OpenAIRenderer) Answer(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyPrompt
	}
	return r.complete(ctx, assistantSystemPrompt, question)
}

// WalletSuggestion gives budgeting advice for query, grounded on the wallet summary when one is given
func (r *OpenAIRenderer) WalletSuggestion(ctx context.Context, query string, summary *models.WalletSummary) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyPrompt
	}
	return r.complete(ctx, assistantSystemPrompt, walletPrompt(query, summary))
}
