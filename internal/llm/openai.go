package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator implements Generator over the OpenAI chat API.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
}

// OpenAIOptions configures the generator defaults; per-request fields in
// a CompletionRequest override them.
type OpenAIOptions struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewOpenAIGenerator creates a generator backed by the OpenAI API.
func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client:      openai.NewClient(opts.APIKey),
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}, nil
}

func (g *OpenAIGenerator) buildRequest(req CompletionRequest) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = g.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.maxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = g.temperature
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	}
}

// Complete performs a one-shot chat completion.
func (g *OpenAIGenerator) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp, err := g.client.CreateChatCompletion(ctx, g.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}
	return &CompletionResponse{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// CompleteStream starts a streamed chat completion.
func (g *OpenAIGenerator) CompleteStream(ctx context.Context, req CompletionRequest) (Stream, error) {
	apiReq := g.buildRequest(req)
	apiReq.Stream = true

	stream, err := g.client.CreateChatCompletionStream(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion stream: %w", err)
	}
	return &openAIStream{inner: stream}, nil
}

type openAIStream struct {
	inner *openai.ChatCompletionStream
}

func (s *openAIStream) Recv() (*StreamChunk, error) {
	resp, err := s.inner.Recv()
	if err != nil {
		// io.EOF passes through as the end-of-stream marker.
		return nil, err
	}
	chunk := &StreamChunk{}
	if len(resp.Choices) > 0 {
		chunk.Delta = resp.Choices[0].Delta.Content
		chunk.FinishReason = string(resp.Choices[0].FinishReason)
	}
	return chunk, nil
}

func (s *openAIStream) Close() error {
	return s.inner.Close()
}
