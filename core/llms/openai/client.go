package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/koscakluka/ema-talk/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultURL = "https://api.openai.com/v1/responses"

var ErrMissingAPIKey = errors.New("openai api key not found")

// Client streams responses from the OpenAI Responses API.
type Client struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithBaseURL points the client at a proxy or compatible endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.url = url
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a streamer for model. An empty apiKey falls back to the
// OPENAI_API_KEY environment variable.
func NewClient(apiKey, model string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := &Client{
		apiKey: apiKey,
		model:  model,
		url:    defaultURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func (c *Client) StreamResponse(_ context.Context, history []llms.ChatMessage, opts ...llms.StreamOption) (llms.Stream, error) {
	options := llms.NewStreamOptions(opts...)

	history = llms.PromptHistory(history)
	if len(history) == 0 {
		return nil, llms.ErrEmptyHistory
	}

	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	requestBody, err := json.Marshal(requestBody{
		Model:           model,
		Input:           toOpenAIMessages(options.Instructions, history),
		Stream:          true,
		MaxOutputTokens: options.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	return &Stream{
		apiKey:      c.apiKey,
		model:       model,
		url:         c.url,
		httpClient:  c.httpClient,
		requestBody: requestBody,
	}, nil
}
