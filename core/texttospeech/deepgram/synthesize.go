package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var errClosedBeforeFlush = errors.New("deepgram closed the connection before flushing")

// Synthesize sends text as a single Speak message, flushes it and collects
// every binary frame until deepgram confirms the flush.
func (c *TextToSpeechClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) (audio.Payload, error) {
	options := texttospeech.NewSynthesisOptions(opts...)

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(attribute.Int("request.text_length", len(text)))

	payload, err := c.synthesize(ctx, text, options)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return audio.Payload{}, err
	}

	span.SetAttributes(attribute.Int("response.audio_bytes", len(payload.Audio)))
	return payload, nil
}

func (c *TextToSpeechClient) synthesize(ctx context.Context, text string, options texttospeech.SynthesisOptions) (audio.Payload, error) {
	voice, err := c.resolveVoice(options.Voice, options.Locale)
	if err != nil {
		return audio.Payload{}, err
	}

	conn, err := c.connect(ctx, voice, options.EncodingInfo)
	if err != nil {
		return audio.Payload{}, fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()

	session := &speakSession{conn: conn}
	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, func() { _ = conn.Close() })
	defer stop()

	g.Go(func() error {
		if err := session.write(sendTextMsg(text)); err != nil {
			return fmt.Errorf("failed to send text: %w", err)
		}
		if err := session.write(flushMsg); err != nil {
			return fmt.Errorf("failed to flush text: %w", err)
		}
		return nil
	})

	var received bytes.Buffer
	g.Go(func() error {
		return session.collect(&received)
	})

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return audio.Payload{}, ctxErr
		}
		return audio.Payload{}, err
	}

	return audio.Payload{Audio: received.Bytes(), EncodingInfo: options.EncodingInfo}, nil
}

func (c *TextToSpeechClient) connect(ctx context.Context, voice deepgramVoice, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	if encodingInfo.IsZero() {
		encodingInfo = audio.GetDefaultEncodingInfo()
	}

	speakURL := *c.speakURL
	query := speakURL.Query()
	query.Set("encoding", encodingInfo.Format.Name())
	query.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	query.Set("model", string(voice))
	query.Set("container", "none")
	speakURL.RawQuery = query.Encode()

	conn, _, err := c.dialer.DialContext(ctx, speakURL.String(),
		http.Header{"Authorization": {"token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

type speakSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *speakSession) write(msg any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

// collect appends audio frames to dst until a Flushed message arrives, then
// politely closes the stream.
func (s *speakSession) collect(dst *bytes.Buffer) error {
	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return errClosedBeforeFlush
			}
			return fmt.Errorf("failed to read from deepgram: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			dst.Write(msg)
		case websocket.TextMessage:
			var parsedMsg serverMessage
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Debug("failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				if err := s.write(closeMsg); err != nil {
					logger.Debug("failed to close deepgram stream", "error", err)
				}
				return nil
			case "Warning":
				logger.Warn("deepgram warning", "code", parsedMsg.Code, "description", parsedMsg.Description)
			case "Error":
				return fmt.Errorf("deepgram error %s: %s", parsedMsg.Code, strings.TrimSpace(parsedMsg.Description))
			}
		}
	}
}

type serverMessage struct {
	Type        string `json:"type"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func sendTextMsg(text string) speakMessage {
	return speakMessage{Type: "Speak", Text: text}
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)

func languageOf(locale string) string {
	language, _, _ := strings.Cut(strings.ToLower(locale), "-")
	language, _, _ = strings.Cut(language, "_")
	return language
}
