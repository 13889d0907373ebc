package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real.
// Responses, si no esta vacio, se consume en orden; despues se repite Response.
type MockClient struct {
	Response  string
	Responses []string
	Err       error

	mu      sync.Mutex
	Prompts []string
	Options []GenerateOptions
}

func (m *MockClient) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	m.Options = append(m.Options, applyOptions(opts))
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) > 0 {
		resp := m.Responses[0]
		m.Responses = m.Responses[1:]
		return resp, nil
	}
	return m.Response, nil
}

// Calls devuelve cuantas veces se llamo a Generate.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
