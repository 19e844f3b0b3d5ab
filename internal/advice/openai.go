package advice

import (
	"context"
	"errors"
	"fmt"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/trogers1052/portfolio-advisor/internal/analysis"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gpt-4o-mini"

var errEmptyCompletion = errors.New("no response from OpenAI")

// OpenAIRenderer renders text with the OpenAI chat completions API
type OpenAIRenderer struct {
	cli       oa.Client
	model     string
	maxTokens int64
}

// NewOpenAIRenderer creates a renderer. Extra client options are appended after the API key.
func NewOpenAIRenderer(apiKey, model string, opts ...option.RequestOption) *OpenAIRenderer {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIRenderer{
		cli:       oa.NewClient(opts...),
		model:     model,
		maxTokens: 400,
	}
}

// RenderExplanation explains what a portfolio score means
func (r *OpenAIRenderer) RenderExplanation(ctx context.Context, score int, symbols []string) (string, error) {
	return r.complete(ctx, explanationSystemPrompt, explanationPrompt(score, symbols))
}

// RenderRiskNarrative summarizes a risk report
func (r *OpenAIRenderer) RenderRiskNarrative(ctx context.Context, report *analysis.RiskReport) (string, error) {
	if report == nil {
		return "", fmt.Errorf("%w: nil risk report", analysis.ErrInvalidInput)
	}
	return r.complete(ctx, riskSystemPrompt, riskPrompt(report))
}

func (r *OpenAIRenderer) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := r.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: oa.ChatModel(r.model),
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(system),
			oa.UserMessage(user),
		},
		MaxTokens: oa.Int(r.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
