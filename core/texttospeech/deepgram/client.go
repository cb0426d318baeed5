package deepgram

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"

	"github.com/gorilla/websocket"
)

const defaultSpeakURL = "wss://api.deepgram.com/v1/speak"

var (
	ErrMissingAPIKey = errors.New("deepgram api key not found")
	ErrUnknownVoice  = errors.New("unknown deepgram voice")
)

// TextToSpeechClient synthesizes one statement per websocket session.
type TextToSpeechClient struct {
	apiKey   string
	speakURL *url.URL
	voice    deepgramVoice
	dialer   *websocket.Dialer
}

type ClientOption func(*TextToSpeechClient) error

// WithAPIKey overrides the DEEPGRAM_API_KEY environment variable.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *TextToSpeechClient) error {
		c.apiKey = apiKey
		return nil
	}
}

// WithSpeakURL points the client at a different websocket endpoint.
func WithSpeakURL(rawURL string) ClientOption {
	return func(c *TextToSpeechClient) error {
		speakURL, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid speak url: %w", err)
		}
		c.speakURL = speakURL
		return nil
	}
}

// WithDefaultVoice sets the voice used when a request does not name one.
func WithDefaultVoice(voice string) ClientOption {
	return func(c *TextToSpeechClient) error {
		if !slices.Contains(availableVoices, deepgramVoice(voice)) {
			return fmt.Errorf("%w: %s", ErrUnknownVoice, voice)
		}
		c.voice = deepgramVoice(voice)
		return nil
	}
}

func NewTextToSpeechClient(opts ...ClientOption) (*TextToSpeechClient, error) {
	speakURL, _ := url.Parse(defaultSpeakURL)
	client := &TextToSpeechClient{
		apiKey:   os.Getenv("DEEPGRAM_API_KEY"),
		speakURL: speakURL,
		voice:    defaultVoice,
		dialer:   websocket.DefaultDialer,
	}

	for _, opt := range opts {
		if err := opt(client); err != nil {
			return nil, err
		}
	}

	if client.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	return client, nil
}

// resolveVoice picks the voice for a request: an explicit voice wins, then a
// voice matching the locale, then the client default.
func (c *TextToSpeechClient) resolveVoice(voice, locale string) (deepgramVoice, error) {
	if voice != "" {
		if !slices.Contains(availableVoices, deepgramVoice(voice)) {
			return "", fmt.Errorf("%w: %s", ErrUnknownVoice, voice)
		}
		return deepgramVoice(voice), nil
	}

	if locale != "" && c.voice.language() != languageOf(locale) {
		if localeVoice, ok := voiceForLocale(locale); ok {
			return localeVoice, nil
		}
	}

	return c.voice, nil
}
