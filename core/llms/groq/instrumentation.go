package groq

import (
	"context"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/koscakluka/ema-talk/core/llms/groq"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

// recordUsage attaches token usage and Groq timings to span and counts the
// tokens per model.
func recordUsage(ctx context.Context, span trace.Span, model string, u *usage) {
	if u == nil {
		return
	}

	span.SetAttributes(
		attribute.Int("usage.prompt", u.PromptTokens),
		attribute.Int("usage.completion", u.CompletionTokens),
		attribute.Int("usage.total", u.TotalTokens),
		attribute.Float64("usage.queue_time", u.QueueTime),
		attribute.Float64("usage.total_time", u.TotalTime),
	)

	modelAttr := metric.WithAttributes(attribute.String("model", model))
	if tokens, err := meter.Int64Counter("llm.tokens", metric.WithDescription("Tokens used by streamed responses")); err == nil {
		tokens.Add(ctx, int64(u.TotalTokens), modelAttr)
	}
	if queueTime, err := meter.Float64Histogram("llm.queue_time", metric.WithUnit("s"),
		metric.WithDescription("Time a request waited in the provider queue")); err == nil {
		queueTime.Record(ctx, u.QueueTime, modelAttr)
	}
}
