package deepgram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/speechtotext"
)

func resultsMessage(transcript string, isFinal bool) []byte {
	final := "false"
	if isFinal {
		final = "true"
	}
	return []byte(`{"type":"Results","is_final":` + final + `,"speech_final":` + final +
		`,"channel":{"alternatives":[{"transcript":"` + transcript + `"}]}}`)
}

func newListenServer(t *testing.T, handle func(conn *websocket.Conn, r *http.Request)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()
		handle(conn, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *TranscriptionClient {
	t.Helper()

	client, err := NewTranscriptionClient(WithAPIKey("test-key"), WithListenURL("ws"+strings.TrimPrefix(server.URL, "http")))
	if err != nil {
		t.Fatalf("expected client, got error %v", err)
	}
	return client
}

func TestStopReturnsFinalTranscript(t *testing.T) {
	var (
		mu       sync.Mutex
		received int
		query    string
	)
	server := newListenServer(t, func(conn *websocket.Conn, r *http.Request) {
		mu.Lock()
		query = r.URL.RawQuery
		mu.Unlock()
		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.BinaryMessage {
				mu.Lock()
				received += len(msg)
				mu.Unlock()
				continue
			}
			if strings.Contains(string(msg), "CloseStream") {
				_ = conn.WriteMessage(websocket.TextMessage, resultsMessage("hello", false))
				_ = conn.WriteMessage(websocket.TextMessage, resultsMessage("Hello there.", true))
				_ = conn.WriteMessage(websocket.TextMessage, resultsMessage("How are you?", true))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	})
	client := newTestClient(t, server)

	var partials []string
	if err := client.Start(context.Background(),
		speechtotext.WithPartialTranscriptionCallback(func(transcript string) { partials = append(partials, transcript) }),
	); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if err := client.SendAudio([]byte{0, 1, 2, 3}); err != nil {
		t.Fatalf("expected audio to be sent, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	transcript, err := client.Stop(ctx)
	if err != nil {
		t.Fatalf("expected stop to succeed, got %v", err)
	}

	if transcript != "Hello there. How are you?" {
		t.Fatalf("expected joined final transcript, got %q", transcript)
	}
	if len(partials) != 2 {
		t.Fatalf("expected 2 partial transcripts, got %v", partials)
	}
	mu.Lock()
	defer mu.Unlock()
	if received != 4 {
		t.Fatalf("expected server to receive 4 bytes, got %d", received)
	}
	if !strings.Contains(query, "encoding=linear16") || !strings.Contains(query, "sample_rate=16000") {
		t.Fatalf("expected encoding in query, got %q", query)
	}
}

func TestStopWithoutStartFails(t *testing.T) {
	client := &TranscriptionClient{}

	if _, err := client.Stop(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
	if err := client.SendAudio([]byte{1}); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
}

func TestStartRejectsUnsupportedEncoding(t *testing.T) {
	client := &TranscriptionClient{apiKey: "key"}

	err := client.Start(context.Background(), speechtotext.WithEncodingInfo(audio.EncodingInfo{SampleRate: 16000, Format: audio.EncodingMulaw}))
	if !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("expected ErrUnsupportedEncoding, got %v", err)
	}
}

func TestInterimCallbackIncludesFinalizedPrefix(t *testing.T) {
	client := &TranscriptionClient{}
	var interim string
	options := speechtotext.TranscriptionOptions{InterimTranscriptionCallback: func(transcript string) { interim = transcript }}

	client.processMessage(resultsMessage("Good morning.", true), options)
	client.processMessage(resultsMessage("how", false), options)

	if interim != "Good morning. how" {
		t.Fatalf("expected interim with finalized prefix, got %q", interim)
	}
}
