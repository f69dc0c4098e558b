package mock

import (
	"context"
	"sync"
)

// Generator is a test double for ai.Generator.
// It records the prompts it receives and allows custom behavior injection.
type Generator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, a canned answer is returned.
	GenerateFunc func(ctx context.Context, system, prompt, model string) (string, error)

	mu         sync.Mutex
	callCount  int
	lastSystem string
	lastPrompt string
	lastModel  string
}

// NewGenerator creates a mock generator that returns a canned answer.
// Note: Returns concrete type to allow test assertions and behavior injection.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate records the prompts and returns the injected or canned answer.
func (m *Generator) Generate(ctx context.Context, system, prompt, model string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastSystem = system
	m.lastPrompt = prompt
	m.lastModel = model
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, prompt, model)
	}
	return "mock answer", nil
}

// CallCount returns the number of times Generate was called.
func (m *Generator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastSystem returns the system prompt from the most recent Generate call.
func (m *Generator) LastSystem() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSystem
}

// LastPrompt returns the user prompt from the most recent Generate call.
func (m *Generator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// LastModel returns the model from the most recent Generate call.
func (m *Generator) LastModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastModel
}

// Reset clears recorded calls and injected behavior.
func (m *Generator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastSystem = ""
	m.lastPrompt = ""
	m.lastModel = ""
	m.GenerateFunc = nil
}
