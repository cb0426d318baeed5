package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-talk/core/events"
	"github.com/koscakluka/ema-talk/core/speechtotext"
	"go.opentelemetry.io/otel/codes"
)

func (o *Orchestrator) IsRecording() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.recording
}

// StartRecording starts capturing input audio and streaming it to the
// recognizer. Any speech of the current turn is stopped. Recording ends on
// StopRecording or, without submitting anything, when ctx ends.
func (o *Orchestrator) StartRecording(ctx context.Context) error {
	if o.closed.Load() {
		return ErrOrchestratorClosed
	}
	if o.audioInput == nil || o.recognizer == nil {
		return ErrRecordingUnavailable
	}

	o.mu.Lock()
	if o.recording {
		o.mu.Unlock()
		return ErrAlreadyRecording
	}
	o.recording = true
	o.mu.Unlock()

	ctx, span := tracer.Start(ctx, "start recording")
	defer span.End()

	o.StopTalking()

	opts := []speechtotext.TranscriptionOption{
		speechtotext.WithEncodingInfo(o.audioInput.EncodingInfo()),
		speechtotext.WithInterimTranscriptionCallback(func(transcript string) {
			o.emit(events.NewUserTranscriptInterimUpdated(transcript))
		}),
	}
	if o.locale != "" {
		opts = append(opts, speechtotext.WithLocale(o.locale))
	}

	if err := o.recognizer.Start(o.baseContext, opts...); err != nil {
		o.setRecording(false)
		err = fmt.Errorf("failed to start recognizer: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := o.audioInput.StartCapture(o.baseContext, func(audio []byte) {
		if err := o.recognizer.SendAudio(audio); err != nil {
			logger.Debug("failed to send audio to recognizer", "error", err)
		}
	}); err != nil {
		_, stopErr := o.recognizer.Stop(o.baseContext)
		o.setRecording(false)
		err = errors.Join(fmt.Errorf("failed to start capture: %w", err), stopErr)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	done := withContextCancelHook(ctx, func() {
		if err := o.stopCapture(o.baseContext); err != nil && !errors.Is(err, ErrNotRecording) {
			logger.Warn("failed to stop recording", "error", err)
		}
	})
	o.mu.Lock()
	if o.recording {
		o.recordingDone = done
	} else {
		close(done)
	}
	o.mu.Unlock()

	o.emit(events.NewRecordingStarted())
	return nil
}

// StopRecording ends capture and submits the finalized transcript as a
// prompt. An empty transcript submits nothing.
func (o *Orchestrator) StopRecording(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "stop recording")
	defer span.End()

	transcript, err := o.stopRecognition(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	transcript = strings.TrimSpace(transcript)
	o.emit(events.NewUserTranscriptFinal(transcript))
	if transcript == "" {
		return nil
	}
	return o.Submit(ctx, transcript)
}

func (o *Orchestrator) stopCapture(ctx context.Context) error {
	_, err := o.stopRecognition(ctx)
	return err
}

func (o *Orchestrator) stopRecognition(ctx context.Context) (string, error) {
	o.mu.Lock()
	if !o.recording {
		o.mu.Unlock()
		return "", ErrNotRecording
	}
	o.recording = false
	done := o.recordingDone
	o.recordingDone = nil
	o.mu.Unlock()

	if done != nil {
		close(done)
	}

	captureErr := o.audioInput.StopCapture()
	if captureErr != nil {
		captureErr = fmt.Errorf("failed to stop capture: %w", captureErr)
	}
	transcript, err := o.recognizer.Stop(ctx)
	if err != nil {
		err = fmt.Errorf("failed to stop recognizer: %w", err)
	}

	o.emit(events.NewRecordingStopped())
	if err := errors.Join(captureErr, err); err != nil {
		return transcript, err
	}
	return transcript, nil
}

func (o *Orchestrator) setRecording(recording bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recording = recording
}
