package speechtotext

import (
	"context"

	"github.com/koscakluka/ema-talk/core/audio"
)

// Recognizer turns a live audio stream into text.
//
// Start opens a recognition session, SendAudio feeds it, and Stop ends it
// and returns the finalized transcript of everything said since Start.
type Recognizer interface {
	Start(ctx context.Context, opts ...TranscriptionOption) error
	SendAudio(audio []byte) error
	Stop(ctx context.Context) (string, error)
}

type TranscriptionOptions struct {
	// InterimTranscriptionCallback receives the running transcript including
	// words that may still change.
	InterimTranscriptionCallback func(transcript string)
	// PartialTranscriptionCallback receives each finalized segment.
	PartialTranscriptionCallback func(transcript string)

	SpeechStartedCallback func()

	EncodingInfo audio.EncodingInfo
	Locale       string
}

type TranscriptionOption func(*TranscriptionOptions)

func WithInterimTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.InterimTranscriptionCallback = callback
	}
}

func WithPartialTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.PartialTranscriptionCallback = callback
	}
}

func WithSpeechStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}

func WithLocale(locale string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Locale = locale
	}
}
