package orchestration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koscakluka/ema-talk/core/audio"
)

// fakeSink records payloads and, for held texts, keeps playing until
// released or cancelled.
type fakeSink struct {
	mu      sync.Mutex
	played  []string
	hold    func(text string) bool
	release chan struct{}
	err     error
	// drain delays returning after cancellation, like a device flushing
	// its buffer.
	drain   time.Duration
	active  atomic.Int32
	overlap atomic.Bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{release: make(chan struct{})}
}

func (s *fakeSink) Play(ctx context.Context, payload audio.Payload, onStart func()) error {
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.active.Add(-1)

	text := string(payload.Audio)
	s.mu.Lock()
	s.played = append(s.played, text)
	hold := s.hold
	err := s.err
	s.mu.Unlock()

	if err != nil {
		return err
	}

	onStart()
	if hold != nil && hold(text) {
		select {
		case <-s.release:
		case <-ctx.Done():
			time.Sleep(s.drain)
			return ctx.Err()
		}
	}
	return nil
}

func (s *fakeSink) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (s *fakeSink) Played() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.played...)
}

func textPayload(text string) audio.Payload {
	return audio.Payload{Audio: []byte(text), EncodingInfo: audio.GetDefaultEncodingInfo()}
}

func TestPlaybackFinishesOnceOnNaturalEnd(t *testing.T) {
	controller := newPlaybackController(newFakeSink())
	var starts, finishes atomic.Int32
	finished := make(chan struct{})

	accepted := controller.Play(textPayload("Hello."), nil,
		func() { starts.Add(1) },
		func() {
			finishes.Add(1)
			close(finished)
		},
	)
	if !accepted {
		t.Fatalf("expected payload to be accepted")
	}

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected playback to finish")
	}
	controller.Stop()
	controller.Stop()

	if got := starts.Load(); got != 1 {
		t.Fatalf("expected onStart once, got %d", got)
	}
	if got := finishes.Load(); got != 1 {
		t.Fatalf("expected onFinished once, got %d", got)
	}
}

func TestPlaybackStopFinishesOnceAndIsIdempotent(t *testing.T) {
	sink := newFakeSink()
	sink.hold = func(string) bool { return true }
	controller := newPlaybackController(sink)
	started := make(chan struct{})
	var finishes atomic.Int32

	controller.Play(textPayload("Long statement."), nil,
		func() { close(started) },
		func() { finishes.Add(1) },
	)
	<-started

	controller.Stop()
	controller.Stop()
	controller.Stop()

	if got := finishes.Load(); got != 1 {
		t.Fatalf("expected onFinished once, got %d", got)
	}
	if controller.Playing() {
		t.Fatalf("expected no active playback after stop")
	}
	waitForCondition(t, func() bool { return sink.active.Load() == 0 }, "sink to observe cancellation")
}

func TestPlaybackWaitsForStoppedSinkToDrain(t *testing.T) {
	sink := newFakeSink()
	sink.drain = 50 * time.Millisecond
	sink.hold = func(text string) bool { return text == "One." }
	controller := newPlaybackController(sink)

	started := make(chan struct{})
	controller.Play(textPayload("One."), nil, func() { close(started) }, nil)
	<-started

	controller.Stop()
	finished := make(chan struct{})
	if !controller.Play(textPayload("Four."), nil, nil, func() { close(finished) }) {
		t.Fatalf("expected payload to be accepted after stop")
	}

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected second payload to finish")
	}
	if sink.overlap.Load() {
		t.Fatalf("expected the second payload to wait for the stopped sink")
	}
	assertStrings(t, []string{"One.", "Four."}, sink.Played())
}

func TestPlaybackRejectsPayloadWhenNotLive(t *testing.T) {
	sink := newFakeSink()
	controller := newPlaybackController(sink)
	var callbacks atomic.Int32

	accepted := controller.Play(textPayload("Too late."), func() bool { return false },
		func() { callbacks.Add(1) },
		func() { callbacks.Add(1) },
	)

	if accepted {
		t.Fatalf("expected payload to be rejected")
	}
	time.Sleep(20 * time.Millisecond)
	if got := callbacks.Load(); got != 0 {
		t.Fatalf("expected no callbacks, got %d", got)
	}
	if got := len(sink.Played()); got != 0 {
		t.Fatalf("expected sink not to be used, got %d payloads", got)
	}
}

func TestPlaybackSkipsStartWhenStoppedBeforeFirstSample(t *testing.T) {
	sink := newFakeSink()
	controller := newPlaybackController(sink)
	var live atomic.Bool
	live.Store(true)
	var starts atomic.Int32
	finished := make(chan struct{})

	gate := make(chan struct{})
	blockingSink := &gatedSink{fakeSink: sink, gate: gate}
	controller.sink = blockingSink

	controller.Play(textPayload("Hello."), live.Load,
		func() { starts.Add(1) },
		func() { close(finished) },
	)
	live.Store(false)
	controller.Stop()
	close(gate)

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected onFinished after stop")
	}
	waitForCondition(t, func() bool { return sink.active.Load() == 0 }, "sink to return")
	if got := starts.Load(); got != 0 {
		t.Fatalf("expected no onStart after stop, got %d", got)
	}
}

func TestPlaybackFinishesOnSinkError(t *testing.T) {
	sink := newFakeSink()
	sink.err = errors.New("device lost")
	controller := newPlaybackController(sink)
	finished := make(chan struct{})

	controller.Play(textPayload("Hello."), nil, nil, func() { close(finished) })

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected onFinished after sink error")
	}
}

// gatedSink delays the start of playback until gate is closed.
type gatedSink struct {
	*fakeSink
	gate chan struct{}
}

func (s *gatedSink) Play(ctx context.Context, payload audio.Payload, onStart func()) error {
	<-s.gate
	return s.fakeSink.Play(ctx, payload, onStart)
}
