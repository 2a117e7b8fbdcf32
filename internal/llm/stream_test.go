package llm

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedStream(t *testing.T) {
	stream := NewSimulatedStream("hello world", "stop", 4)

	var chunks []string
	var finish string
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk.Delta)
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
	}

	assert.Equal(t, []string{"hell", "o wo", "rld"}, chunks)
	assert.Equal(t, "stop", finish)
}

func TestSimulatedStream_CloseStopsDelivery(t *testing.T) {
	stream := NewSimulatedStream("hello world", "stop", 4)

	_, err := stream.Recv()
	require.NoError(t, err)

	require.NoError(t, stream.Close())
	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamCollector(t *testing.T) {
	stream := NewSimulatedStream("the full answer", "stop", 3)

	resp, err := NewStreamCollector().Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "the full answer", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestTranslator(t *testing.T) {
	gen := &MockGenerator{
		Responses: []*CompletionResponse{{Content: "  What is the gold plan price?  "}},
	}
	tr := NewTranslator(gen)

	out, err := tr.ToEnglish(context.Background(), "gold plan ki qeemat kya hai")
	require.NoError(t, err)
	assert.Equal(t, "What is the gold plan price?", out)

	require.Len(t, gen.CompleteCalls, 1)
	assert.Equal(t, "system", gen.CompleteCalls[0].Messages[0].Role)
}

func TestTranslator_ToRomanUrdu(t *testing.T) {
	gen := &MockGenerator{
		Responses: []*CompletionResponse{{Content: "gold plan ki qeemat kya hai"}},
	}
	out, err := NewTranslator(gen).ToRomanUrdu(context.Background(), "What is the gold plan price?")
	require.NoError(t, err)
	assert.Equal(t, "gold plan ki qeemat kya hai", out)
	assert.Contains(t, gen.CompleteCalls[0].Messages[0].Content, "Roman Urdu")
}

func TestTranslator_Errors(t *testing.T) {
	gen := &MockGenerator{Errors: []error{errors.New("upstream down")}}
	_, err := NewTranslator(gen).ToEnglish(context.Background(), "kya hai")
	assert.Error(t, err)

	gen = &MockGenerator{Responses: []*CompletionResponse{{Content: "   "}}}
	_, err = NewTranslator(gen).ToEnglish(context.Background(), "kya hai")
	assert.Error(t, err)
}
