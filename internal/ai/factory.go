package ai

import (
	"fmt"
	"strings"

	"github.com/kiranshivaraju/jobloader/internal/config"
	"github.com/kiranshivaraju/jobloader/pkg/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// vLLM serves the OpenAI API and ignores the token unless started with --api-key.
const vllmPlaceholderToken = "EMPTY"

// NewProvider constructs the generation model selected by config.
// Called once at startup.
func NewProvider(cfg config.AIConfig) (models.GenerationModel, error) {
	switch cfg.Provider {
	case "ollama":
		llm, err := ollama.New(
			ollama.WithModel(cfg.Ollama.Model),
			ollama.WithServerURL(cfg.Ollama.BaseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return newProvider("ollama", cfg.Ollama.Model, llm, cfg.InferenceTimeout), nil

	case "vllm":
		token := cfg.VLLM.APIKey
		if token == "" {
			token = vllmPlaceholderToken
		}
		llm, err := openai.New(
			openai.WithToken(token),
			openai.WithModel(cfg.VLLM.Model),
			openai.WithBaseURL(strings.TrimSuffix(cfg.VLLM.BaseURL, "/")+"/v1"),
		)
		if err != nil {
			return nil, fmt.Errorf("create vllm model: %w", err)
		}
		return newProvider("vllm", cfg.VLLM.Model, llm, cfg.InferenceTimeout), nil

	case "openai":
		opts := []openai.Option{
			openai.WithToken(cfg.OpenAI.APIKey),
			openai.WithModel(cfg.OpenAI.Model),
		}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return newProvider("openai", cfg.OpenAI.Model, llm, cfg.InferenceTimeout), nil

	case "anthropic":
		llm, err := anthropic.New(
			anthropic.WithToken(cfg.Anthropic.APIKey),
			anthropic.WithModel(cfg.Anthropic.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		p := newProvider("anthropic", cfg.Anthropic.Model, llm, cfg.InferenceTimeout)
		p.promptRole = llms.ChatMessageTypeHuman
		return p, nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, vllm, openai, anthropic", cfg.Provider)
	}
}
