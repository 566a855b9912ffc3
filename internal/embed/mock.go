package embed

import (
	"context"
	"sync"
)

// Mock is a deterministic test Embedder, grounded in the teacher's
// internal/embed/mock.go: it hashes input text rather than calling a real
// model, and lets tests inject errors to exercise the fallback ladder.
type Mock struct {
	mu         sync.Mutex
	dim        int
	embedErr   error
	closedFlag bool
}

// NewMock returns a Mock embedder producing dim-dimensional vectors.
func NewMock(dim int) *Mock {
	if dim <= 0 {
		dim = 384
	}
	return &Mock{dim: dim}
}

// SetEmbedError makes subsequent Embed/EmbedBatch calls fail, to exercise
// withHashFallback in tests.
func (m *Mock) SetEmbedError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedErr = err
}

func (m *Mock) Dimension() int { return m.dim }

func (m *Mock) Embed(_ context.Context, text string, _ Mode) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return hashVector(text, m.dim), nil
}

func (m *Mock) EmbedBatch(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	m.mu.Lock()
	err := m.embedErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t, m.dim)
	}
	return out, nil
}

func (m *Mock) WarmUp(_ context.Context) error { return nil }

func (m *Mock) Status() Status { return Status{Method: MethodHash, Model: "mock"} }

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closedFlag = true
	return nil
}

// Closed reports whether Close() has been called, for test assertions.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closedFlag
}
