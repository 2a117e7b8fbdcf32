// Package llm wraps the text-generation collaborator behind a narrow
// generator contract: one-shot completions and cancellable streams.
package llm

import (
	"context"
)

// Message is a chat message sent to the generator.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// CompletionRequest holds everything needed for one generation call.
type CompletionRequest struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float64
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionResponse is a complete generation result.
type CompletionResponse struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// StreamChunk is one fragment of a streamed generation.
type StreamChunk struct {
	Delta        string
	FinishReason string
}

// Stream is a finite, non-restartable sequence of chunks. Recv returns
// io.EOF after the final chunk. Close releases the stream early; a
// cancelled context surfaces as an error from Recv.
type Stream interface {
	Recv() (*StreamChunk, error)
	Close() error
}

// Generator produces text completions.
type Generator interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	CompleteStream(ctx context.Context, req CompletionRequest) (Stream, error)
}
