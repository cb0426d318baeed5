package miniaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-talk/core/audio"
)

var errPlaybackBusy = errors.New("playback device is already playing")

type playbackClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	current *activePlayback

	mu       sync.Mutex
	bufferMu sync.Mutex
}

// activePlayback is the payload currently handed to the device callback.
type activePlayback struct {
	remaining []byte
	drained   bool

	startOnce sync.Once
	started   chan struct{}
	doneOnce  sync.Once
	done      chan struct{}
}

func newActivePlayback(payload audio.Payload) *activePlayback {
	return &activePlayback{
		remaining: payload.Audio,
		started:   make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (p *activePlayback) markStarted() { p.startOnce.Do(func() { close(p.started) }) }
func (p *activePlayback) markDone()    { p.doneOnce.Do(func() { close(p.done) }) }

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext, encodingInfo audio.EncodingInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(encodingInfo.SampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	c.config.Periods = 4

	c.audioContext = audioContext

	var err error
	if c.device, err = malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	); err != nil {
		return err
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

// Play queues payload on the device and waits until the device callback has
// consumed all of it, or until ctx is done.
func (c *playbackClient) Play(ctx context.Context, payload audio.Payload, onStart func()) error {
	c.mu.Lock()
	started := c.device != nil && c.device.IsStarted()
	c.mu.Unlock()
	if !started {
		return fmt.Errorf("device not started")
	}

	if payload.IsEmpty() {
		return nil
	}

	playback := newActivePlayback(payload)
	c.bufferMu.Lock()
	if c.current != nil {
		c.bufferMu.Unlock()
		return errPlaybackBusy
	}
	c.current = playback
	c.bufferMu.Unlock()

	select {
	case <-playback.started:
		if onStart != nil {
			onStart()
		}
	case <-ctx.Done():
		c.drop(playback)
		return ctx.Err()
	}

	select {
	case <-playback.done:
		return nil
	case <-ctx.Done():
		c.drop(playback)
		return ctx.Err()
	}
}

// drop removes playback from the device buffer if it is still current.
func (c *playbackClient) drop(playback *activePlayback) {
	c.bufferMu.Lock()
	defer c.bufferMu.Unlock()
	if c.current == playback {
		c.current = nil
	}
	playback.markDone()
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	c.device.Uninit()
	c.device = nil

	c.bufferMu.Lock()
	if c.current != nil {
		c.current.markDone()
		c.current = nil
	}
	c.bufferMu.Unlock()

	return nil
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := min(int(frameCount)*bytesPerFrame, len(pOutput))

		c.bufferMu.Lock()
		defer c.bufferMu.Unlock()

		playback := c.current
		if playback == nil {
			clear(pOutput[:need])
			return
		}

		// The previous period carried the last samples; by now they have
		// been handed to the device.
		if playback.drained {
			clear(pOutput[:need])
			c.current = nil
			playback.markDone()
			return
		}

		n := copy(pOutput[:need], playback.remaining)
		clear(pOutput[n:need])
		playback.remaining = playback.remaining[n:]
		playback.markStarted()
		if len(playback.remaining) == 0 {
			playback.drained = true
		}
	}
}
