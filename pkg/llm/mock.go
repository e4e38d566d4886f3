package llm

import (
	"context"
	"sync"
)

// MockLLMClient is a test double for LLMClient. Set GenerateResponseFunc to
// control responses; call counts are tracked for assertions.
type MockLLMClient struct {
	mu sync.Mutex

	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	GenerateResponseCalls int
	LastPrompt            string
	LastSystemMessage     string
}

var _ LLMClient = (*MockLLMClient)(nil)

func (m *MockLLMClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	m.mu.Lock()
	m.GenerateResponseCalls++
	m.LastPrompt = prompt
	m.LastSystemMessage = systemMessage
	fn := m.GenerateResponseFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, systemMessage, temperature)
	}
	return &GenerateResponseResult{Content: "{}"}, nil
}

func (m *MockLLMClient) GetModel() string {
	return "mock-model"
}

func (m *MockLLMClient) GetEndpoint() string {
	return "mock://localhost"
}

// Calls returns the number of GenerateResponse invocations.
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GenerateResponseCalls
}
