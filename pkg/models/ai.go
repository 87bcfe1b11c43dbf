// Package models contains shared data models used across the jobloader codebase.
package models

import "context"

// GenerationModel is the interface every text-generation integration implements.
// Never call a specific provider directly; always inject this interface.
type GenerationModel interface {
	// Generate sends prompt as a single system message at temperature 0.
	Generate(ctx context.Context, prompt string) (Generation, error)
	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string
}

// Generation is one model reply plus the usage the provider reported.
// Token counts are nil when the provider did not report them.
type Generation struct {
	Content          string
	Model            string
	PromptTokens     *int
	CompletionTokens *int
}
