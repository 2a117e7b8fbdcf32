package bot

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikrfree/assistant/internal/llm"
)

func TestParseAlternativeTrigger(t *testing.T) {
	product, variant, ok := parseAlternativeTrigger("suggest alternative for BIMA Sehat Gold")
	require.True(t, ok)
	assert.Equal(t, "BIMA Sehat", product)
	assert.Equal(t, "gold", variant)

	product, variant, ok = parseAlternativeTrigger("Suggest an alternative to Care Shield bronze")
	require.True(t, ok)
	assert.Equal(t, "Care Shield", product)
	assert.Equal(t, "bronze", variant)

	_, _, ok = parseAlternativeTrigger("what is a good alternative medicine")
	assert.False(t, ok)

	_, _, ok = parseAlternativeTrigger("suggest alternative for BIMA Sehat")
	assert.False(t, ok, "variant is required")
}

func TestParseCompareTrigger(t *testing.T) {
	names, ok := parseCompareTrigger("compare: BIMA Sehat, Care Shield")
	require.True(t, ok)
	assert.Equal(t, []string{"BIMA Sehat", "Care Shield"}, names)

	names, ok = parseCompareTrigger("compare: BIMA Sehat vs Care Shield")
	require.True(t, ok)
	assert.Equal(t, []string{"BIMA Sehat", "Care Shield"}, names)

	_, ok = parseCompareTrigger("how do these plans compare")
	assert.False(t, ok)
}

func TestParseBudget(t *testing.T) {
	// Monthly amounts pass through.
	v, ok := parseBudget("my budget is Rs. 2,500 per month")
	require.True(t, ok)
	assert.Equal(t, 2500.0, v)

	// Small amounts are daily rates, scaled to monthly.
	v, ok = parseBudget("around 150 rupees")
	require.True(t, ok)
	assert.Equal(t, 4500.0, v)

	v, ok = parseBudget("PKR 199")
	require.True(t, ok)
	assert.Equal(t, 199.0*30, v)

	v, ok = parseBudget("exactly 200")
	require.True(t, ok)
	assert.Equal(t, 200.0, v)

	_, ok = parseBudget("no numbers here")
	assert.False(t, ok)
}

func TestIsEmergency(t *testing.T) {
	assert.True(t, isEmergency("I have severe pain in my arm"))
	assert.True(t, isEmergency("CHEST PAIN right now"))
	assert.False(t, isEmergency("what does the gold plan cover"))
}

func TestWantsShortlist(t *testing.T) {
	assert.True(t, wantsShortlist("recommend a plan for my family"))
	assert.True(t, wantsShortlist("which plan is the cheapest"))
	assert.False(t, wantsShortlist("tell me about BIMA Sehat"))
}

func TestWithTail(t *testing.T) {
	inner := llm.NewSimulatedStream("generated answer", "stop", 6)
	stream := withTail(inner, "\n\nTAIL")

	resp, err := llm.NewStreamCollector().Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "generated answer\n\nTAIL", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestWithTail_EmptyTailPassesThrough(t *testing.T) {
	inner := llm.NewSimulatedStream("answer", "stop", 3)
	stream := withTail(inner, "")

	var all string
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		all += chunk.Delta
	}
	assert.Equal(t, "answer", all)
}
