package llm

import (
	"io"
	"strings"
	"sync"
)

// SimulatedStream chunks an already-complete response. Used by the
// deterministic strategies so every response path speaks the same
// streaming contract.
type SimulatedStream struct {
	content      string
	position     int
	chunkSize    int
	finishReason string
	closed       bool
	mu           sync.Mutex
}

// NewSimulatedStream creates a stream over a complete response.
func NewSimulatedStream(content, finishReason string, chunkSize int) *SimulatedStream {
	if chunkSize <= 0 {
		chunkSize = 10
	}
	return &SimulatedStream{
		content:      content,
		chunkSize:    chunkSize,
		finishReason: finishReason,
	}
}

// Recv returns the next simulated chunk.
func (s *SimulatedStream) Recv() (*StreamChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.position >= len(s.content) {
		return nil, io.EOF
	}

	end := s.position + s.chunkSize
	if end > len(s.content) {
		end = len(s.content)
	}

	chunk := &StreamChunk{Delta: s.content[s.position:end]}
	s.position = end
	if s.position >= len(s.content) {
		chunk.FinishReason = s.finishReason
	}
	return chunk, nil
}

// Close stops the simulated stream.
func (s *SimulatedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// StreamCollector drains a stream into a complete response.
type StreamCollector struct {
	content      strings.Builder
	finishReason string
}

// NewStreamCollector creates an empty collector.
func NewStreamCollector() *StreamCollector {
	return &StreamCollector{}
}

// Collect reads all chunks and returns the assembled response.
func (c *StreamCollector) Collect(stream Stream) (*CompletionResponse, error) {
	defer stream.Close()
	for {
		chunk, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		c.content.WriteString(chunk.Delta)
		if chunk.FinishReason != "" {
			c.finishReason = chunk.FinishReason
		}
	}
	return &CompletionResponse{
		Content:      c.content.String(),
		FinishReason: c.finishReason,
	}, nil
}
