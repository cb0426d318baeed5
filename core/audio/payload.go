package audio

import (
	"context"
	"time"
)

// Payload is a synthesized piece of audio. The bytes are opaque to the
// pipeline and only interpreted by a Sink.
type Payload struct {
	Audio        []byte
	EncodingInfo EncodingInfo
}

func (p Payload) IsEmpty() bool {
	return len(p.Audio) == 0
}

func (p Payload) Duration() time.Duration {
	return p.EncodingInfo.Duration(len(p.Audio))
}

// Sink plays one payload at a time.
//
// Play blocks until the payload has been played to completion or ctx is
// cancelled, in which case sounding audio is dropped and ctx.Err() is
// returned. onStart is called once, as close as possible to the first audible
// sample; it may be called from the device callback goroutine.
type Sink interface {
	Play(ctx context.Context, payload Payload, onStart func()) error
	EncodingInfo() EncodingInfo
}

// Source captures audio and hands raw chunks to onAudio until StopCapture.
type Source interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	EncodingInfo() EncodingInfo
}
