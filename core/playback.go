package orchestration

import (
	"context"
	"sync"

	"github.com/koscakluka/ema-talk/core/audio"
)

// playbackController plays one payload at a time on an audio sink and makes
// it stoppable.
//
// For every accepted payload onFinished runs exactly once, on natural end,
// on sink failure or on Stop. onStart never runs after onFinished and never
// runs when the liveness check fails.
type playbackController struct {
	sink audio.Sink

	mu       sync.Mutex
	current  *activePlayback
	// sinkDone closes when the most recent sink call returns. Stop clears
	// current right away, but the sink may still be draining.
	sinkDone chan struct{}
}

type activePlayback struct {
	cancel   context.CancelFunc
	sinkDone chan struct{}

	mu           sync.Mutex
	started      bool
	starting     bool
	finished     bool
	finishCalled bool

	onStart    func()
	onFinished func()
}

func newPlaybackController(sink audio.Sink) *playbackController {
	return &playbackController{sink: sink}
}

// Play hands payload to the sink unless live reports false. The check is
// made under the same lock Stop takes, so a stop issued before the check
// always wins. Play reports whether the payload was accepted; when it was
// not, neither callback runs.
func (p *playbackController) Play(payload audio.Payload, live func() bool, onStart, onFinished func()) bool {
	if p == nil || p.sink == nil {
		return false
	}

	p.mu.Lock()
	if live != nil && !live() {
		p.mu.Unlock()
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	playback := &activePlayback{
		cancel:     cancel,
		sinkDone:   make(chan struct{}),
		onStart:    onStart,
		onFinished: onFinished,
	}
	previousSinkDone := p.sinkDone
	p.current = playback
	p.sinkDone = playback.sinkDone
	p.mu.Unlock()

	go func() {
		defer close(playback.sinkDone)
		if previousSinkDone != nil {
			<-previousSinkDone
		}

		err := p.sink.Play(ctx, payload, func() {
			p.mu.Lock()
			current := p.current == playback
			p.mu.Unlock()
			if current {
				playback.start(live)
			}
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("audio playback failed", "error", err)
		}
		p.release(playback)
	}()
	return true
}

// Stop ends the current playback. It is safe to call at any time, any
// number of times.
func (p *playbackController) Stop() {
	if p == nil {
		return
	}

	p.mu.Lock()
	playback := p.current
	p.mu.Unlock()

	if playback != nil {
		p.release(playback)
	}
}

// Playing reports whether a payload is accepted and not yet finished.
func (p *playbackController) Playing() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

func (p *playbackController) release(playback *activePlayback) {
	p.mu.Lock()
	if p.current == playback {
		p.current = nil
	}
	p.mu.Unlock()
	playback.finish()
}

func (pb *activePlayback) start(live func() bool) {
	pb.mu.Lock()
	if pb.started || pb.finished || (live != nil && !live()) {
		pb.mu.Unlock()
		return
	}
	pb.started, pb.starting = true, true
	pb.mu.Unlock()

	if pb.onStart != nil {
		pb.onStart()
	}

	pb.mu.Lock()
	pb.starting = false
	deferredFinish := pb.finished && !pb.finishCalled
	if deferredFinish {
		pb.finishCalled = true
	}
	pb.mu.Unlock()

	if deferredFinish && pb.onFinished != nil {
		pb.onFinished()
	}
}

func (pb *activePlayback) finish() {
	pb.cancel()

	pb.mu.Lock()
	if pb.finished {
		pb.mu.Unlock()
		return
	}
	pb.finished = true
	if pb.starting {
		// start delivers onFinished once onStart returns
		pb.mu.Unlock()
		return
	}
	pb.finishCalled = true
	pb.mu.Unlock()

	if pb.onFinished != nil {
		pb.onFinished()
	}
}
