package main

import (
	"context"
	"errors"
	"fmt"

	orchestration "github.com/koscakluka/ema-talk/core"
	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/audio/miniaudio"
	"github.com/koscakluka/ema-talk/core/audio/portaudio"
	"github.com/koscakluka/ema-talk/core/conversations"
	"github.com/koscakluka/ema-talk/core/conversations/sqlite"
	"github.com/koscakluka/ema-talk/core/llms"
	"github.com/koscakluka/ema-talk/core/llms/groq"
	"github.com/koscakluka/ema-talk/core/llms/openai"
	sttdeepgram "github.com/koscakluka/ema-talk/core/speechtotext/deepgram"
	ttsdeepgram "github.com/koscakluka/ema-talk/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-talk/internal/config"
)

// components are the adapters a session is built from, with the cleanup
// they need once the session ends.
type components struct {
	options []orchestration.OrchestratorOption
	closers []func() error
}

func (c *components) close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

func buildComponents(ctx context.Context, cfg *config.Config) (*components, error) {
	c := &components{}

	streamer, err := newStreamer(cfg.LLM)
	if err != nil {
		return nil, err
	}
	c.options = append(c.options,
		orchestration.WithContext(ctx),
		orchestration.WithStreamer(streamer),
		orchestration.WithInstructions(cfg.LLM.Instructions),
		orchestration.WithMaxTokens(cfg.LLM.MaxTokens),
		orchestration.WithVoice(cfg.Speech.Voice),
		orchestration.WithLocale(cfg.Speech.Locale),
	)
	if mode, ok := orchestration.ParseTalkMode(cfg.Speech.TalkMode); ok {
		c.options = append(c.options, orchestration.WithTalkMode(mode))
	}

	history, err := newHistory(ctx, cfg.Storage, c)
	if err != nil {
		return nil, errors.Join(err, c.close())
	}
	c.options = append(c.options, orchestration.WithMessageStore(history))

	if !cfg.SpeechEnabled() {
		c.options = append(c.options, orchestration.WithTalkMode(orchestration.TalkModeChat))
		return c, nil
	}

	if err := addSpeech(cfg, c); err != nil {
		return nil, errors.Join(err, c.close())
	}
	return c, nil
}

func newStreamer(cfg config.LLMConfig) (llms.Streamer, error) {
	switch cfg.Provider {
	case config.ProviderGroq:
		var opts []groq.ClientOption
		if cfg.BaseURL != "" {
			opts = append(opts, groq.WithBaseURL(cfg.BaseURL))
		}
		client, err := groq.NewClient(cfg.APIKey, cfg.Model, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create groq client: %w", err)
		}
		return client, nil
	default:
		var opts []openai.ClientOption
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		client, err := openai.NewClient(cfg.APIKey, cfg.Model, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return client, nil
	}
}

func newHistory(ctx context.Context, cfg config.StorageConfig, c *components) (*conversations.History, error) {
	if cfg.Path == "" {
		return conversations.NewHistory(), nil
	}

	store, err := sqlite.Open(ctx, cfg.Path, cfg.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	c.closers = append(c.closers, store.Close)

	history := conversations.NewHistory(conversations.WithPersister(store))
	if err := history.Load(ctx); err != nil {
		return nil, err
	}
	return history, nil
}

func addSpeech(cfg *config.Config, c *components) error {
	ttsOpts := []ttsdeepgram.ClientOption{ttsdeepgram.WithAPIKey(cfg.Speech.APIKey)}
	if cfg.Speech.Voice != "" {
		ttsOpts = append(ttsOpts, ttsdeepgram.WithDefaultVoice(cfg.Speech.Voice))
	}
	synthesizer, err := ttsdeepgram.NewTextToSpeechClient(ttsOpts...)
	if err != nil {
		return fmt.Errorf("failed to create synthesizer: %w", err)
	}
	c.options = append(c.options, orchestration.WithSynthesizer(synthesizer))

	encoding := audio.EncodingInfo{SampleRate: cfg.Audio.SampleRate, Format: audio.EncodingLinear16}
	switch cfg.Audio.Backend {
	case config.BackendPortaudio:
		client, err := portaudio.NewClient(encoding, cfg.Audio.BufferSize)
		if err != nil {
			return fmt.Errorf("failed to open portaudio output: %w", err)
		}
		c.closers = append(c.closers, func() error { client.Close(); return nil })
		c.options = append(c.options, orchestration.WithAudioOutput(client))
		// portaudio plays only, so voice input is unavailable
		return nil
	default:
		client, err := miniaudio.NewClient(encoding)
		if err != nil {
			return fmt.Errorf("failed to open miniaudio device: %w", err)
		}
		c.closers = append(c.closers, func() error { client.Close(); return nil })
		c.options = append(c.options,
			orchestration.WithAudioOutput(client),
			orchestration.WithAudioInput(client),
		)
	}

	recognizer, err := sttdeepgram.NewTranscriptionClient(
		sttdeepgram.WithAPIKey(cfg.Speech.APIKey),
		sttdeepgram.WithModel(cfg.Speech.RecognitionModel),
	)
	if err != nil {
		return fmt.Errorf("failed to create recognizer: %w", err)
	}
	c.options = append(c.options, orchestration.WithRecognizer(recognizer))
	return nil
}
