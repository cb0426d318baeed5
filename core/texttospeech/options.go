package texttospeech

import (
	"context"

	"github.com/koscakluka/ema-talk/core/audio"
)

// Synthesizer turns one piece of text into one playable payload.
//
// Synthesize is a request/response call: it returns only once the whole
// payload is available.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts ...SynthesisOption) (audio.Payload, error)
}

type SynthesisOptions struct {
	// Voice is the provider specific voice identifier, empty means the
	// provider default.
	Voice string
	// Locale is a BCP 47 language tag hint, e.g. "en-US".
	Locale string

	EncodingInfo audio.EncodingInfo
}

type SynthesisOption func(*SynthesisOptions)

func WithVoice(voice string) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.Voice = voice
	}
}

func WithLocale(locale string) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.Locale = locale
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.EncodingInfo = encodingInfo
	}
}

// NewSynthesisOptions applies opts over the defaults.
func NewSynthesisOptions(opts ...SynthesisOption) SynthesisOptions {
	options := SynthesisOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
