package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-talk/core/audio"
)

// Client is a blocking playback [audio.Sink] on the default output device.
type Client struct {
	bufferSize   int
	encodingInfo audio.EncodingInfo
	stream       *portaudio.Stream

	out []int16
	mu  sync.Mutex
}

func NewClient(encodingInfo audio.EncodingInfo, bufferSize int) (*Client, error) {
	if encodingInfo.IsZero() {
		encodingInfo = audio.GetDefaultEncodingInfo()
	}
	if encodingInfo.Format != audio.EncodingLinear16 {
		return nil, fmt.Errorf("unsupported encoding %q", encodingInfo.Format.Name())
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(encodingInfo.SampleRate), bufferSize, out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	return &Client{
		bufferSize:   bufferSize,
		encodingInfo: encodingInfo,
		stream:       stream,
		out:          out,
	}, nil
}

// Play writes payload one buffer at a time, checking ctx between writes.
func (c *Client) Play(ctx context.Context, payload audio.Payload, onStart func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return fmt.Errorf("stream closed")
	}

	frames := splitFrames(payload.Audio, c.bufferSize*2)
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}

		clear(c.out)
		if err := binary.Read(bytes.NewReader(frame), binary.LittleEndian, c.out[:len(frame)/2]); err != nil {
			return fmt.Errorf("failed to decode audio frame: %w", err)
		}
		if err := c.stream.Write(); err != nil {
			return fmt.Errorf("failed to write to portaudio stream: %w", err)
		}
		if i == 0 && onStart != nil {
			onStart()
		}
	}

	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return
	}
	_ = c.stream.Stop()
	_ = c.stream.Close()
	_ = portaudio.Terminate()
	c.stream = nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return c.encodingInfo
}

// splitFrames cuts audio into frames of at most frameSize bytes, dropping a
// trailing odd byte that cannot form a sample.
func splitFrames(audio []byte, frameSize int) [][]byte {
	audio = audio[:len(audio)-len(audio)%2]
	if frameSize <= 0 || len(audio) == 0 {
		return nil
	}

	frames := make([][]byte, 0, (len(audio)+frameSize-1)/frameSize)
	for start := 0; start < len(audio); start += frameSize {
		frames = append(frames, audio[start:min(start+frameSize, len(audio))])
	}
	return frames
}
