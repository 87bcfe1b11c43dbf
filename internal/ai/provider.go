package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/jobloader/pkg/models"
	"github.com/tmc/langchaingo/llms"
)

// Provider implements models.GenerationModel on top of a langchaingo model.
type Provider struct {
	name    string
	model   string
	llm     llms.Model
	timeout time.Duration
	// Anthropic rejects a conversation without a user turn, so the prompt is
	// sent as a human message there.
	promptRole llms.ChatMessageType
}

func newProvider(name, model string, llm llms.Model, timeout time.Duration) *Provider {
	return &Provider{
		name:       name,
		model:      model,
		llm:        llm,
		timeout:    timeout,
		promptRole: llms.ChatMessageTypeSystem,
	}
}

func (p *Provider) Name() string { return p.name }

// Generate sends prompt as the only message, at temperature 0.
func (p *Provider) Generate(ctx context.Context, prompt string) (models.Generation, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{llms.TextParts(p.promptRole, prompt)}
	resp, err := p.llm.GenerateContent(ctx, messages,
		llms.WithModel(p.model),
		llms.WithTemperature(0),
	)
	if err != nil {
		return models.Generation{}, classifyError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return models.Generation{}, fmt.Errorf("%w: no choices", ErrInvalidResponse)
	}

	choice := resp.Choices[0]
	gen := models.Generation{Content: choice.Content, Model: p.model}
	gen.PromptTokens, gen.CompletionTokens = usage(choice.GenerationInfo)

	slog.Debug("generation finished",
		"provider", p.name,
		"model", p.model,
		"stop_reason", choice.StopReason,
	)
	return gen, nil
}

// usage reads token counts from GenerationInfo. OpenAI-compatible and Ollama
// backends report PromptTokens/CompletionTokens, Anthropic InputTokens/OutputTokens.
func usage(info map[string]any) (prompt, completion *int) {
	prompt = firstInt(info, "PromptTokens", "InputTokens")
	completion = firstInt(info, "CompletionTokens", "OutputTokens")
	return prompt, completion
}

func firstInt(info map[string]any, keys ...string) *int {
	for _, k := range keys {
		v, ok := info[k]
		if !ok {
			continue
		}
		var n int
		switch t := v.(type) {
		case int:
			n = t
		case int32:
			n = int(t)
		case int64:
			n = int(t)
		case float64:
			n = int(t)
		default:
			continue
		}
		return &n
	}
	return nil
}

var _ models.GenerationModel = (*Provider)(nil)
