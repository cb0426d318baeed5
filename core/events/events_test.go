package events

import (
	"errors"
	"testing"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "recording started", event: NewRecordingStarted(), expected: KindRecordingStarted},
		{name: "recording stopped", event: NewRecordingStopped(), expected: KindRecordingStopped},
		{name: "interim transcript", event: NewUserTranscriptInterimUpdated("hel"), expected: KindUserTranscriptInterimUpdated},
		{name: "final transcript", event: NewUserTranscriptFinal("hello"), expected: KindUserTranscriptFinal},
		{name: "turn started", event: NewTurnStarted("hi"), expected: KindTurnStarted},
		{name: "turn completed", event: NewTurnCompleted(), expected: KindTurnCompleted},
		{name: "turn failed", event: NewTurnFailed(errors.New("boom"), "boom"), expected: KindTurnFailed},
		{name: "turn cancelled", event: NewTurnCancelled(), expected: KindTurnCancelled},
		{name: "response updated", event: NewAssistantResponseUpdated("id", "text"), expected: KindAssistantResponseUpdated},
		{name: "response final", event: NewAssistantResponseFinal("id", "text"), expected: KindAssistantResponseFinal},
		{name: "statement", event: NewAssistantStatement("Hi."), expected: KindAssistantStatement},
		{name: "speech failed", event: NewAssistantSpeechFailed("Hi.", errors.New("boom")), expected: KindAssistantSpeechFailed},
		{name: "playback started", event: NewAssistantPlaybackStarted("Hi."), expected: KindAssistantPlaybackStarted},
		{name: "playback ended", event: NewAssistantPlaybackEnded(), expected: KindAssistantPlaybackEnded},
		{name: "status changed", event: NewStatusChanged("thinking"), expected: KindStatusChanged},
		{name: "playback state changed", event: NewPlaybackStateChanged("talking", 0.05, 2), expected: KindPlaybackStateChanged},
		{name: "subtitle changed", event: NewSubtitleChanged("Hi."), expected: KindSubtitleChanged},
		{name: "talk mode changed", event: NewTalkModeChanged("chat"), expected: KindTalkModeChanged},
		{name: "messages changed", event: NewMessagesChanged(), expected: KindMessagesChanged},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected timestamp to be set")
			}
		})
	}
}

func TestKindNamespace(t *testing.T) {
	if got := KindTurnStarted.Namespace(); got != "turn_state" {
		t.Fatalf("expected namespace %q, got %q", "turn_state", got)
	}
	if got := Kind("plain").Namespace(); got != "plain" {
		t.Fatalf("expected namespace %q, got %q", "plain", got)
	}
}
