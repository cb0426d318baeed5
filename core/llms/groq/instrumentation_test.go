package groq

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRecordUsageSetsSpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	ctx, span := provider.Tracer("test").Start(context.Background(), "stream")
	recordUsage(ctx, span, "llama", nil)
	recordUsage(ctx, span, "llama", &usage{PromptTokens: 4, CompletionTokens: 3, TotalTokens: 7, QueueTime: 0.25})
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(ended))
	}

	values := map[attribute.Key]attribute.Value{}
	for _, kv := range ended[0].Attributes() {
		values[kv.Key] = kv.Value
	}
	if got := values["usage.total"].AsInt64(); got != 7 {
		t.Fatalf("expected usage.total 7, got %d", got)
	}
	if got := values["usage.queue_time"].AsFloat64(); got != 0.25 {
		t.Fatalf("expected usage.queue_time 0.25, got %v", got)
	}
}
