package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/speechtotext"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultListenURL  = "wss://api.deepgram.com/v1/listen"
	keepAliveInterval = 5 * time.Second
)

var (
	ErrMissingAPIKey  = errors.New("deepgram api key not found")
	ErrAlreadyStarted = errors.New("transcription already started")
	ErrNotStarted     = errors.New("transcription not started")
)

// TranscriptionClient is a [speechtotext.Recognizer] backed by the deepgram
// live listen websocket.
type TranscriptionClient struct {
	apiKey    string
	listenURL *url.URL
	model     string

	conn      *websocket.Conn
	connMu    sync.Mutex
	readDone  chan struct{}
	lastMsgTs time.Time

	transcriptMu          sync.Mutex
	accumulatedTranscript []string
}

type ClientOption func(*TranscriptionClient) error

func WithAPIKey(apiKey string) ClientOption {
	return func(c *TranscriptionClient) error {
		c.apiKey = apiKey
		return nil
	}
}

func WithListenURL(rawURL string) ClientOption {
	return func(c *TranscriptionClient) error {
		listenURL, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid listen url: %w", err)
		}
		c.listenURL = listenURL
		return nil
	}
}

func WithModel(model string) ClientOption {
	return func(c *TranscriptionClient) error {
		c.model = model
		return nil
	}
}

func NewTranscriptionClient(opts ...ClientOption) (*TranscriptionClient, error) {
	listenURL, _ := url.Parse(defaultListenURL)
	client := &TranscriptionClient{
		apiKey:    os.Getenv("DEEPGRAM_API_KEY"),
		listenURL: listenURL,
		model:     "nova-3",
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

func (s *TranscriptionClient) Start(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := speechtotext.TranscriptionOptions{EncodingInfo: audio.GetDefaultEncodingInfo(), Locale: "en-US"}
	for _, opt := range opts {
		opt(&options)
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		return ErrAlreadyStarted
	}

	conn, err := s.connect(ctx, encoding, options)
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	s.transcriptMu.Lock()
	s.accumulatedTranscript = nil
	s.transcriptMu.Unlock()

	s.conn = conn
	s.lastMsgTs = time.Now()
	s.readDone = make(chan struct{})
	go s.readAndProcessMessages(conn, s.readDone, options)
	go s.keepAlive(conn, s.readDone)

	return nil
}

func (s *TranscriptionClient) connect(ctx context.Context, encoding listenEncoding, options speechtotext.TranscriptionOptions) (*websocket.Conn, error) {
	listenURL := *s.listenURL
	queryParams := listenURL.Query()
	queryParams.Set("encoding", encoding.Name)
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", s.model)
	queryParams.Set("language", options.Locale)
	queryParams.Set("smart_format", "true")
	queryParams.Set("endpointing", "300")
	if options.InterimTranscriptionCallback != nil {
		queryParams.Set("interim_results", "true")
	}
	if options.SpeechStartedCallback != nil {
		queryParams.Set("vad_events", "true")
	}
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + s.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func (s *TranscriptionClient) SendAudio(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return ErrNotStarted
	}

	s.lastMsgTs = time.Now()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

// Stop asks deepgram to finalize pending audio and waits until the server
// closes the stream or ctx is done. The transcript collected so far is
// returned in both cases.
func (s *TranscriptionClient) Stop(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "stop transcription")
	defer span.End()

	s.connMu.Lock()
	conn, readDone := s.conn, s.readDone
	if conn == nil {
		s.connMu.Unlock()
		return "", ErrNotStarted
	}
	err := conn.WriteJSON(websocketMessage{Type: string(api.TypeCloseStreamResponse)})
	s.connMu.Unlock()
	if err != nil {
		err = fmt.Errorf("failed to close deepgram stream: %w", err)
		span.RecordError(err)
		_ = conn.Close()
	}

	select {
	case <-readDone:
	case <-ctx.Done():
		_ = conn.Close()
		<-readDone
	}

	s.connMu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.connMu.Unlock()

	transcript := s.transcript()
	if err != nil && transcript == "" {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return transcript, nil
}

func (s *TranscriptionClient) transcript() string {
	s.transcriptMu.Lock()
	defer s.transcriptMu.Unlock()
	return strings.Join(s.accumulatedTranscript, " ")
}

func (s *TranscriptionClient) readAndProcessMessages(conn *websocket.Conn, done chan struct{}, options speechtotext.TranscriptionOptions) {
	defer close(done)
	defer conn.Close()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.Debug("deepgram websocket read ended", "error", err)
			}
			return
		}
		if msgType == websocket.TextMessage {
			s.processMessage(msg, options)
		}
	}
}

func (s *TranscriptionClient) processMessage(msg []byte, options speechtotext.TranscriptionOptions) {
	var parsedMsg websocketMessage
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Debug("failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Debug("failed to unmarshal deepgram results", "error", err)
			return
		}
		if len(msgResp.Channel.Alternatives) == 0 {
			return
		}

		transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		if transcript == "" {
			return
		}

		if msgResp.IsFinal {
			s.transcriptMu.Lock()
			s.accumulatedTranscript = append(s.accumulatedTranscript, transcript)
			s.transcriptMu.Unlock()
			if options.PartialTranscriptionCallback != nil {
				options.PartialTranscriptionCallback(transcript)
			}
		} else if options.InterimTranscriptionCallback != nil {
			options.InterimTranscriptionCallback(strings.TrimSpace(s.transcript() + " " + transcript))
		}

	case api.TypeSpeechStartedResponse:
		if options.SpeechStartedCallback != nil {
			options.SpeechStartedCallback()
		}
	}
}

// keepAlive stops deepgram from timing the stream out while the microphone
// delivers nothing.
func (s *TranscriptionClient) keepAlive(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn == conn && time.Since(s.lastMsgTs) >= keepAliveInterval {
				if err := conn.WriteJSON(websocketMessage{Type: "KeepAlive"}); err != nil {
					logger.Debug("failed to send deepgram keep alive", "error", err)
				}
			}
			s.connMu.Unlock()
		}
	}
}

type websocketMessage struct {
	Type string `json:"type"`
}
