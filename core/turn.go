package orchestration

import (
	"context"
	"sync/atomic"
)

// turn is one request/response exchange.
//
// A turn is live while it is the newest turn and nobody stopped it. Every
// speech task checks liveness before synthesis and again before playback.
type turn struct {
	id         uint64
	generation *atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc

	prompt    string
	messageID string

	silenced   atomic.Bool
	streamDone atomic.Bool

	subtitles subtitleQueue
}

func (t *turn) current() bool {
	return t != nil && t.generation.Load() == t.id
}

func (t *turn) live() bool {
	return t.current() && !t.silenced.Load()
}
