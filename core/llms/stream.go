package llms

import (
	"context"
	"errors"
	"fmt"
)

var ErrEmptyHistory = errors.New("history has no messages to respond to")

// Stream is a live model response.
//
// Chunks yields raw response bytes in order. A non-nil error ends the stream;
// the consumer should not expect further chunks after it.
type Stream interface {
	Chunks(context.Context) func(func([]byte, error) bool)
}

// Streamer starts a model response to the given conversation history.
//
// StreamResponse returns an error only when the request could not be started.
// Failures after the first chunk are reported through the stream.
type Streamer interface {
	StreamResponse(ctx context.Context, history []ChatMessage, opts ...StreamOption) (Stream, error)
}

// StreamError is returned when the model endpoint rejects a request.
type StreamError struct {
	StatusCode int
	Message    string
}

func (e *StreamError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}
