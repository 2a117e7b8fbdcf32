package llm

import (
	"context"
)

// MockGenerator is a scripted Generator for tests.
type MockGenerator struct {
	// Responses are consumed in order by Complete.
	Responses []*CompletionResponse
	// StreamContents are consumed in order by CompleteStream, each served
	// as a simulated stream.
	StreamContents []string
	// Errors, when non-nil at the current call index, are returned instead.
	Errors []error
	// ChunkSize controls simulated stream chunking.
	ChunkSize int

	// Call tracking.
	CompleteCalls []CompletionRequest
	StreamCalls   []CompletionRequest

	idx int
}

func (m *MockGenerator) nextErr() error {
	if m.idx < len(m.Errors) {
		return m.Errors[m.idx]
	}
	return nil
}

// Complete implements Generator.
func (m *MockGenerator) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.CompleteCalls = append(m.CompleteCalls, req)
	defer func() { m.idx++ }()

	if err := m.nextErr(); err != nil {
		return nil, err
	}
	if m.idx < len(m.Responses) {
		return m.Responses[m.idx], nil
	}
	return &CompletionResponse{Content: "mock response", FinishReason: "stop"}, nil
}

// CompleteStream implements Generator.
func (m *MockGenerator) CompleteStream(_ context.Context, req CompletionRequest) (Stream, error) {
	m.StreamCalls = append(m.StreamCalls, req)
	defer func() { m.idx++ }()

	if err := m.nextErr(); err != nil {
		return nil, err
	}
	content := "mock streamed response"
	if m.idx < len(m.StreamContents) {
		content = m.StreamContents[m.idx]
	}
	return NewSimulatedStream(content, "stop", m.ChunkSize), nil
}
