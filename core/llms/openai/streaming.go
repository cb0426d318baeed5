package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/koscakluka/ema-talk/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	eventPrefix = "event:"
	chunkPrefix = "data:"
)

// Stream is a lazily started Responses API request. The HTTP call is made
// when Chunks is iterated.
type Stream struct {
	apiKey      string
	model       string
	url         string
	httpClient  *http.Client
	requestBody []byte
}

func (s *Stream) Chunks(ctx context.Context) func(func([]byte, error) bool) {
	return func(yield func([]byte, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt llm stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", s.model))

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(nil, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(s.requestBody))
		if err != nil {
			fail(fmt.Errorf("error creating HTTP request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		requestStart := time.Now()
		resp, err := s.httpClient.Do(req)
		if err != nil {
			fail(fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode >= http.StatusBadRequest {
			fail(readStreamError(resp))
			return
		}

		firstChunk := true
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, eventPrefix) {
				continue
			}
			event := streamingEventType(strings.TrimSpace(strings.TrimPrefix(line, eventPrefix)))

			if !scanner.Scan() {
				break
			}
			chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))

			switch event {
			case streamingEventResponseOutputTextDelta:
				var responseBody streamingBodyResponseTextDelta
				if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
					logger.Debug("failed to unmarshal text delta", "error", err)
					continue
				}
				if firstChunk {
					firstChunk = false
					span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requestStart).Seconds()))
				}
				if !yield([]byte(responseBody.Delta), nil) {
					return
				}

			case streamingEventResponseCompleted:
				var responseBody streamingBodyResponseCompleted
				if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
					logger.Debug("failed to unmarshal completed response", "error", err)
					continue
				}
				recordUsage(ctx, span, s.model, responseBody.Response.Usage)

			case streamingEventResponseFailed, streamingEventError:
				var responseBody streamingBodyFailure
				_ = json.Unmarshal([]byte(chunk), &responseBody)
				fail(&llms.StreamError{Message: responseBody.message()})
				return
			}
		}

		if err := scanner.Err(); err != nil {
			fail(fmt.Errorf("error reading streamed response: %w", err))
		}
	}
}

func readStreamError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return &llms.StreamError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var errorBody struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errorBody) == nil && errorBody.Error.Message != "" {
		return &llms.StreamError{StatusCode: resp.StatusCode, Message: errorBody.Error.Message}
	}

	message := strings.TrimSpace(string(body))
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &llms.StreamError{StatusCode: resp.StatusCode, Message: message}
}

func recordUsage(ctx context.Context, span trace.Span, model string, usage *responseBodyUsage) {
	if usage == nil {
		return
	}

	span.SetAttributes(
		attribute.Int("response.input_tokens", usage.InputTokens),
		attribute.Int("response.output_tokens", usage.OutputTokens),
	)
	if tokenCounter, err := meter.Int64Counter("llm.tokens", metric.WithDescription("Tokens used by streamed responses")); err == nil {
		tokenCounter.Add(ctx, int64(usage.TotalTokens), metric.WithAttributes(attribute.String("model", model)))
	}
}

type streamingEventType string

const (
	streamingEventResponseOutputTextDelta streamingEventType = "response.output_text.delta"
	streamingEventResponseCompleted       streamingEventType = "response.completed"
	streamingEventResponseFailed          streamingEventType = "response.failed"
	streamingEventError                   streamingEventType = "error"
)

type streamingBodyResponseTextDelta struct {
	Delta string `json:"delta"`
}

// streamingBodyResponseCompleted is emitted when the model response is complete
type streamingBodyResponseCompleted struct {
	Response struct {
		Usage *responseBodyUsage `json:"usage"`
	} `json:"response"`
}

type responseBodyUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// streamingBodyFailure covers both the top level "error" event and the
// "response.failed" event.
type streamingBodyFailure struct {
	Message  string `json:"message"`
	Response struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"response"`
}

func (b streamingBodyFailure) message() string {
	if b.Message != "" {
		return b.Message
	}
	if b.Response.Error != nil && b.Response.Error.Message != "" {
		return b.Response.Error.Message
	}
	return "response failed"
}
