package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-talk/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var errSpeechCancelled = errors.New("speech cancelled before synthesis")

// speechCallbacks let the coordinator observe a statement's playback.
type speechCallbacks struct {
	onStart    func(t *turn, subtitle string)
	onFinished func(t *turn)
	onFailed   func(t *turn, statement string, err error)
}

// speechPipeline turns statements into audio, one statement at a time.
//
// Synthesis for a statement starts only after the previous statement
// finished playing, so at most one payload sounds at a time and statements
// play in the order they were detected.
type speechPipeline struct {
	// ctx outlives turns; stopping a turn never aborts a request already
	// sent to the synthesizer.
	ctx         context.Context
	synthesizer texttospeech.Synthesizer
	options     func() []texttospeech.SynthesisOption

	queue     *taskQueue
	playback  *playbackController
	callbacks speechCallbacks

	synthesisFailures metric.Int64Counter
}

// speak queues statement for synthesis and playback within t. Statements
// with nothing to say are dropped.
func (p *speechPipeline) speak(t *turn, statement Statement) {
	text := statement.Speech()
	if text == "" || p.synthesizer == nil {
		return
	}

	t.subtitles.push(text)
	p.queue.Enqueue(func() error {
		return p.play(t, text)
	})
}

func (p *speechPipeline) play(t *turn, text string) error {
	// each task owns one subtitle entry whether or not it ends up audible
	subtitle, popped := "", false
	takeSubtitle := func() string {
		if !popped {
			subtitle, _ = t.subtitles.pop()
			popped = true
		}
		return subtitle
	}
	defer takeSubtitle()

	if !t.live() {
		return errSpeechCancelled
	}

	ctx, span := tracer.Start(p.ctx, "speak statement")
	defer span.End()
	span.SetAttributes(attribute.Int("statement.length", len(text)))

	var opts []texttospeech.SynthesisOption
	if p.options != nil {
		opts = p.options()
	}
	payload, err := p.synthesizer.Synthesize(ctx, text, opts...)
	if err != nil {
		err = fmt.Errorf("failed to synthesize statement: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if p.synthesisFailures != nil {
			p.synthesisFailures.Add(ctx, 1)
		}
		if p.callbacks.onFailed != nil {
			p.callbacks.onFailed(t, text, err)
		}
		return err
	}

	if !t.live() || payload.IsEmpty() {
		return nil
	}

	finished := make(chan struct{})
	accepted := p.playback.Play(payload, t.live,
		func() {
			if p.callbacks.onStart != nil {
				p.callbacks.onStart(t, takeSubtitle())
			}
		},
		func() {
			if p.callbacks.onFinished != nil {
				p.callbacks.onFinished(t)
			}
			close(finished)
		},
	)
	if !accepted {
		return nil
	}

	<-finished
	return nil
}
