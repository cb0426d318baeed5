package llms

import "github.com/koscakluka/ema-talk/internal/utils"

type StreamOptions struct {
	// Instructions is the system prompt, empty means none.
	Instructions string
	// Model overrides the streamer's configured model.
	Model string
	// MaxTokens caps the response length, nil leaves it to the provider.
	MaxTokens *int
}

type StreamOption func(*StreamOptions)

func WithInstructions(instructions string) StreamOption {
	return func(o *StreamOptions) {
		o.Instructions = instructions
	}
}

func WithModel(model string) StreamOption {
	return func(o *StreamOptions) {
		o.Model = model
	}
}

func WithMaxTokens(maxTokens int) StreamOption {
	return func(o *StreamOptions) {
		if maxTokens > 0 {
			o.MaxTokens = utils.Ptr(maxTokens)
		}
	}
}

func NewStreamOptions(opts ...StreamOption) StreamOptions {
	options := StreamOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
