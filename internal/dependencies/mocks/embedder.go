package mocks

import (
	"context"
	"fmt"
	"sync"
)

// MockEmbedder returns fixed vectors for known texts
type MockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int

	// Err, when set, is returned from Embed
	Err error
}

// NewMockEmbedder creates a MockEmbedder
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{vectors: make(map[string][]float32)}
}

// Set registers the vector returned for text
func (e *MockEmbedder) Set(text string, vector ...float32) {
	e.mu.Lock()
	e.vectors[text] = vector
	e.mu.Unlock()
}

// Embed returns the registered vector for each text
func (e *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := e.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", text)
		}
		out[i] = v
	}
	return out, nil
}

// Calls returns how many times Embed was called
func (e *MockEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
