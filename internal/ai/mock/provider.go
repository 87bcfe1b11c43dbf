package mock

import (
	"context"
	"sync"

	"github.com/kiranshivaraju/jobloader/internal/ai"
	"github.com/kiranshivaraju/jobloader/pkg/models"
)

// MockProvider satisfies models.GenerationModel for testing. It records every
// prompt it receives.
type MockProvider struct {
	Name_        string
	GenerateFunc func(ctx context.Context, prompt string) (models.Generation, error)

	mu      sync.Mutex
	prompts []string
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Generate(ctx context.Context, prompt string) (models.Generation, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return models.Generation{}, nil
}

// Prompts returns the prompts received so far.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Calls returns how many times Generate was called.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// NewMockProvider returns a MockProvider that replies with content and fixed usage.
func NewMockProvider(content string) *MockProvider {
	return &MockProvider{
		Name_: "mock",
		GenerateFunc: func(_ context.Context, _ string) (models.Generation, error) {
			prompt, completion := 1200, 350
			return models.Generation{
				Content:          content,
				Model:            "mock-v1",
				PromptTokens:     &prompt,
				CompletionTokens: &completion,
			}, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		GenerateFunc: func(_ context.Context, _ string) (models.Generation, error) {
			return models.Generation{}, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		GenerateFunc: func(ctx context.Context, _ string) (models.Generation, error) {
			<-ctx.Done()
			return models.Generation{}, ai.ErrInferenceTimeout
		},
	}
}

// NewStuckProvider returns a MockProvider that ignores cancellation and only
// returns once release is closed.
func NewStuckProvider(release <-chan struct{}) *MockProvider {
	return &MockProvider{
		Name_: "mock-stuck",
		GenerateFunc: func(_ context.Context, _ string) (models.Generation, error) {
			<-release
			return models.Generation{Content: "{}"}, nil
		},
	}
}

// Compile-time check that MockProvider implements GenerationModel.
var _ models.GenerationModel = (*MockProvider)(nil)
