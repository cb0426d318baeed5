package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-talk/core"
	"github.com/koscakluka/ema-talk/core/events"
	"github.com/koscakluka/ema-talk/core/llms"
)

func TestRenderTranscriptLabelsAndWraps(t *testing.T) {
	messages := []llms.ChatMessage{
		{ID: "1", Role: llms.RoleUser, Content: "Hello there"},
		{ID: "2", Role: llms.RoleModel, Content: strings.Repeat("word ", 20)},
		{ID: "3", Role: llms.RoleModel, Content: ""},
	}

	out := renderTranscript(messages, 30)

	if !strings.Contains(out, "you") || !strings.Contains(out, "ema") {
		t.Fatalf("expected role labels, got %q", out)
	}
	if !strings.Contains(out, "…") {
		t.Fatalf("expected placeholder for a pending response, got %q", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if utf8.RuneCountInString(line) > 30 && !strings.Contains(line, "\x1b") {
			t.Fatalf("expected lines wrapped at 30 columns, got %q", line)
		}
	}
}

func TestRenderTranscriptMarksErrors(t *testing.T) {
	out := renderTranscript([]llms.ChatMessage{
		{ID: "1", Role: llms.RoleModel, Content: "429: rate limited", Error: true},
	}, 80)

	if !strings.Contains(out, "error") || !strings.Contains(out, "429: rate limited") {
		t.Fatalf("expected error label and content, got %q", out)
	}
}

func TestRenderWave(t *testing.T) {
	idle := renderWave(orchestration.PlaybackIdle.VisualizerParams(), 0.3, 12)
	if got := utf8.RuneCountInString(idle); got != 12 {
		t.Fatalf("expected 12 bars, got %d", got)
	}
	for _, r := range idle {
		if r != '▁' {
			t.Fatalf("expected a flat idle wave, got %q", idle)
		}
	}

	talking := renderWave(orchestration.PlaybackTalking.VisualizerParams(), 0.3, 12)
	if !strings.ContainsAny(talking, "▆▇█") {
		t.Fatalf("expected a tall talking wave, got %q", talking)
	}
}

func TestModelAppliesSessionEvents(t *testing.T) {
	var m tea.Model = newModel(context.Background(), nil)

	for _, event := range []events.Event{
		events.NewStatusChanged(string(orchestration.StatusTalking)),
		events.NewSubtitleChanged("Hello."),
		events.NewTalkModeChanged(string(orchestration.TalkModeChat)),
		events.NewRecordingStarted(),
		events.NewUserTranscriptInterimUpdated("hel"),
	} {
		m, _ = m.Update(sessionEventMsg{event: event})
	}

	got := m.(model)
	if got.status != orchestration.StatusTalking {
		t.Fatalf("expected status %q, got %q", orchestration.StatusTalking, got.status)
	}
	if got.subtitle != "Hello." || got.talkMode != orchestration.TalkModeChat {
		t.Fatalf("expected subtitle and talk mode to update, got %q %q", got.subtitle, got.talkMode)
	}
	if !got.recording || got.interim != "hel" {
		t.Fatalf("expected recording with interim transcript, got %v %q", got.recording, got.interim)
	}

	m, _ = m.Update(sessionEventMsg{event: events.NewRecordingStopped()})
	if got := m.(model); got.recording || got.interim != "" {
		t.Fatalf("expected recording to clear, got %v %q", got.recording, got.interim)
	}
}

func TestModelShowsErrors(t *testing.T) {
	var m tea.Model = newModel(context.Background(), nil)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(errMsg{err: errors.New("no user message to resubmit")})

	if view := m.View(); !strings.Contains(view, "no user message to resubmit") {
		t.Fatalf("expected error in view, got %q", view)
	}
}

func TestSubmitIgnoresEmptyInput(t *testing.T) {
	var m tea.Model = newModel(context.Background(), nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil {
		t.Fatalf("expected no command for empty input")
	}
}
