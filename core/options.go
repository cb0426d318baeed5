package orchestration

import (
	"context"

	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/events"
	"github.com/koscakluka/ema-talk/core/llms"
	"github.com/koscakluka/ema-talk/core/speechtotext"
	"github.com/koscakluka/ema-talk/core/texttospeech"
)

type OrchestratorOption func(*Orchestrator)

// WithContext sets the context that outlives turns. Synthesis requests and
// history saves run under it.
func WithContext(ctx context.Context) OrchestratorOption {
	return func(o *Orchestrator) {
		if ctx != nil {
			o.baseContext = ctx
		}
	}
}

func WithStreamer(streamer llms.Streamer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.streamer = streamer
	}
}

func WithSynthesizer(synthesizer texttospeech.Synthesizer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.synthesizer = synthesizer
	}
}

func WithAudioOutput(sink audio.Sink) OrchestratorOption {
	return func(o *Orchestrator) {
		o.audioOutput = sink
	}
}

func WithAudioInput(source audio.Source) OrchestratorOption {
	return func(o *Orchestrator) {
		o.audioInput = source
	}
}

func WithRecognizer(recognizer speechtotext.Recognizer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.recognizer = recognizer
	}
}

// WithMessageStore replaces the default in-memory transcript.
func WithMessageStore(store MessageStore) OrchestratorOption {
	return func(o *Orchestrator) {
		o.history = store
	}
}

func WithInstructions(instructions string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.instructions = instructions
	}
}

func WithModel(model string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.model = model
	}
}

// WithMaxTokens caps the length of every response; zero means no cap.
func WithMaxTokens(maxTokens int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.maxTokens = maxTokens
	}
}

func WithVoice(voice string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.voice = voice
	}
}

func WithLocale(locale string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.locale = locale
	}
}

func WithTalkMode(mode TalkMode) OrchestratorOption {
	return func(o *Orchestrator) {
		o.talkMode = mode
	}
}

// WithEventHandler receives every event the session emits. Handlers run
// synchronously on the goroutine that caused the event and must not block.
func WithEventHandler(handler func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) {
		if handler != nil {
			o.eventHandlers = append(o.eventHandlers, handler)
		}
	}
}

type sessionCallbacks struct {
	onStatusChanged        func(Status)
	onPlaybackStateChanged func(PlaybackState, VisualizerParams)
	onSubtitleChanged      func(string)
	onResponse             func(messageID, text string)
	onMessagesChanged      func()
	onInterimTranscription func(string)
	onTranscription        func(string)
	onError                func(error)
}

func WithStatusCallback(callback func(status Status)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.callbacks.onStatusChanged = callback
	}
}

func WithPlaybackStateCallback(callback func(state PlaybackState, params VisualizerParams)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.callbacks.onPlaybackStateChanged = callback
	}
}

func WithSubtitleCallback(callback func(subtitle string)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.callbacks.onSubtitleChanged = callback
	}
}

// WithResponseCallback receives the full text streamed so far each time a
// response grows.
func WithResponseCallback(callback func(messageID, text string)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.callbacks.onResponse = callback
	}
}

func WithMessagesChangedCallback(callback func()) OrchestratorOption {
	return func(o *Orchestrator) {
		o.callbacks.onMessagesChanged = callback
	}
}

func WithInterimTranscriptionCallback(callback func(transcript string)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.callbacks.onInterimTranscription = callback
	}
}

func WithTranscriptionCallback(callback func(transcript string)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.callbacks.onTranscription = callback
	}
}

// WithErrorCallback receives failed turns and skipped statements.
func WithErrorCallback(callback func(err error)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.callbacks.onError = callback
	}
}
