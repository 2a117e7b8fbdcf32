package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_ParentChild(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	SetTracer(tp.Tracer("test"))
	t.Cleanup(func() { SetTracer(nil) })

	ctx, parent := StartSpan(context.Background(), "bot.route")
	_, child := StartSpan(ctx, "retrieval.retrieve")
	child.End()
	parent.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "retrieval.retrieve", spans[0].Name())
	assert.Equal(t, "bot.route", spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().TraceID(), spans[0].SpanContext().TraceID(),
		"child must join the parent trace")
}

func TestStartSpan_NoopByDefault(t *testing.T) {
	SetTracer(nil)
	_, span := StartSpan(context.Background(), "anything")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	err := InitTracing(TraceConfig{Enabled: true, ExporterType: "bogus"})
	assert.Error(t, err)
}
