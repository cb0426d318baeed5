package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/conversations"
	"github.com/koscakluka/ema-talk/core/events"
	"github.com/koscakluka/ema-talk/core/llms"
	"github.com/koscakluka/ema-talk/core/speechtotext"
	"github.com/koscakluka/ema-talk/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrEmptyPrompt          = errors.New("prompt is empty")
	ErrNothingToResubmit    = errors.New("no user message to resubmit")
	ErrOrchestratorClosed   = errors.New("orchestrator is closed")
	ErrStreamerUnavailable  = errors.New("no language model configured")
	ErrRecordingUnavailable = errors.New("recording needs an audio source and a recognizer")
	ErrAlreadyRecording     = errors.New("already recording")
	ErrNotRecording         = errors.New("not recording")
)

// MessageStore is the transcript a session reads prompts from and writes
// responses to.
type MessageStore interface {
	Add(message llms.ChatMessage)
	Update(id, content string) error
	Replace(id string, message llms.ChatMessage) error
	Revoke(id string) error
	Clear()
	Save(ctx context.Context) error
	Messages() []llms.ChatMessage
	LastOfRole(role llms.Role) (llms.ChatMessage, bool)
}

// Orchestrator runs a conversation session: it streams responses into the
// transcript and, in voice mode, speaks them statement by statement.
//
// At most one turn is current. Submitting a new prompt stops the audio of
// the previous turn and cancels its response stream.
type Orchestrator struct {
	streamer    llms.Streamer
	synthesizer texttospeech.Synthesizer
	audioOutput audio.Sink
	audioInput  audio.Source
	recognizer  speechtotext.Recognizer
	history     MessageStore

	instructions string
	model        string
	maxTokens    int
	voice        string
	locale       string

	generation atomic.Uint64
	// turnMu serializes turn starts and transcript clears.
	turnMu sync.Mutex

	mu            sync.Mutex
	current       *turn
	status        Status
	playbackState PlaybackState
	subtitle      string
	talkMode      TalkMode
	recording     bool
	recordingDone chan struct{}

	queue    *taskQueue
	playback *playbackController
	speech   *speechPipeline

	callbacks     sessionCallbacks
	eventHandlers []func(events.Event)
	emitEvent     eventEmitter

	baseContext context.Context
	closed      atomic.Bool
	closeOnce   sync.Once

	turnCounter      metric.Int64Counter
	statementCounter metric.Int64Counter
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		status:        StatusSilence,
		playbackState: PlaybackIdle,
		talkMode:      TalkModeVoice,
		baseContext:   context.Background(),
		emitEvent:     noopEventEmitter,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.history == nil {
		o.history = conversations.NewHistory()
	}
	o.emitEvent = newCallbackEventEmitter(o.callbacks, o.eventHandlers...)
	o.initMetrics()

	o.queue = newTaskQueue(o.settle)
	o.playback = newPlaybackController(o.audioOutput)
	o.speech = &speechPipeline{
		ctx:         o.baseContext,
		synthesizer: o.synthesizer,
		options:     o.synthesisOptions,
		queue:       o.queue,
		playback:    o.playback,
		callbacks: speechCallbacks{
			onStart:    o.onSpeechStarted,
			onFinished: o.onSpeechFinished,
			onFailed:   o.onSpeechFailed,
		},
	}
	if counter, err := meter.Int64Counter("speech.synthesis_failures",
		metric.WithDescription("Statements skipped because synthesis failed")); err == nil {
		o.speech.synthesisFailures = counter
	}

	return o
}

func (o *Orchestrator) initMetrics() {
	var err error
	if o.turnCounter, err = meter.Int64Counter("session.turns",
		metric.WithDescription("Submitted prompts")); err != nil {
		logger.Debug("failed to create turn counter", "error", err)
	}
	if o.statementCounter, err = meter.Int64Counter("speech.statements",
		metric.WithDescription("Statements detected in responses")); err != nil {
		logger.Debug("failed to create statement counter", "error", err)
	}
}

// Submit sends prompt as a new turn and blocks until its response stream
// ends. Speech of the response may continue after Submit returns.
//
// A turn superseded by a newer one returns nil and keeps whatever text it
// streamed so far.
func (o *Orchestrator) Submit(ctx context.Context, prompt string) error {
	return o.submit(ctx, prompt, "")
}

// Resubmit revokes the last user message, together with everything after
// it, and submits its text again.
func (o *Orchestrator) Resubmit(ctx context.Context) error {
	if o.closed.Load() {
		return ErrOrchestratorClosed
	}

	last, ok := o.history.LastOfRole(llms.RoleUser)
	if !ok {
		return ErrNothingToResubmit
	}
	return o.submit(ctx, last.Content, last.ID)
}

func (o *Orchestrator) submit(ctx context.Context, prompt, revokeID string) error {
	if o.closed.Load() {
		return ErrOrchestratorClosed
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ErrEmptyPrompt
	}
	if o.streamer == nil {
		return ErrStreamerUnavailable
	}

	ctx, span := tracer.Start(ctx, "submit prompt")
	defer span.End()
	span.SetAttributes(attribute.Bool("prompt.resubmitted", revokeID != ""))

	t, history, err := o.startTurn(ctx, prompt, revokeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer t.cancel()

	if err := o.respond(t, history); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (o *Orchestrator) startTurn(ctx context.Context, prompt, revokeID string) (*turn, []llms.ChatMessage, error) {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	o.supersedeTurn()

	if revokeID != "" {
		if err := o.history.Revoke(revokeID); err != nil {
			return nil, nil, fmt.Errorf("failed to revoke message: %w", err)
		}
	}

	userMessage := conversations.NewMessage(llms.RoleUser, prompt)
	o.history.Add(userMessage)
	history := llms.PromptHistory(o.history.Messages())
	modelMessage := conversations.NewMessage(llms.RoleModel, "")
	o.history.Add(modelMessage)

	turnCtx, cancel := context.WithCancel(ctx)
	t := &turn{
		id:         o.generation.Add(1),
		generation: &o.generation,
		ctx:        turnCtx,
		cancel:     cancel,
		prompt:     prompt,
		messageID:  modelMessage.ID,
	}

	o.mu.Lock()
	o.current = t
	o.mu.Unlock()

	if o.turnCounter != nil {
		o.turnCounter.Add(ctx, 1)
	}
	o.setSubtitle("")
	o.setStatus(StatusThinking)
	o.emit(events.NewTurnStarted(prompt))
	o.emit(events.NewMessagesChanged())
	return t, history, nil
}

// supersedeTurn stops and detaches the current turn. Callers hold turnMu.
func (o *Orchestrator) supersedeTurn() {
	o.mu.Lock()
	previous := o.current
	o.current = nil
	o.mu.Unlock()

	o.generation.Add(1)
	if previous == nil {
		return
	}

	previous.silenced.Store(true)
	o.stopSpeech()
	previous.cancel()
	if !previous.streamDone.Load() {
		o.emit(events.NewTurnCancelled())
	}
}

func (o *Orchestrator) respond(t *turn, history []llms.ChatMessage) error {
	var opts []llms.StreamOption
	if o.instructions != "" {
		opts = append(opts, llms.WithInstructions(o.instructions))
	}
	if o.model != "" {
		opts = append(opts, llms.WithModel(o.model))
	}
	if o.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(o.maxTokens))
	}

	stream, err := o.streamer.StreamResponse(t.ctx, history, opts...)
	if err != nil {
		return o.failTurn(t, err)
	}

	tokenizer := newTextStream(
		func(text string) { o.updateResponse(t, text) },
		func(statement Statement) { o.handleStatement(t, statement) },
	)
	for chunk, err := range stream.Chunks(t.ctx) {
		if err != nil {
			tokenizer.Fail(err)
			return o.failTurn(t, err)
		}
		tokenizer.Feed(chunk)
	}
	tokenizer.Finish()

	o.completeTurn(t, tokenizer.Text())
	return nil
}

func (o *Orchestrator) updateResponse(t *turn, text string) {
	if err := o.history.Update(t.messageID, text); err != nil {
		logger.Debug("dropped response update", "message_id", t.messageID, "error", err)
		return
	}
	o.emit(events.NewAssistantResponseUpdated(t.messageID, text))
}

func (o *Orchestrator) handleStatement(t *turn, statement Statement) {
	if o.statementCounter != nil {
		o.statementCounter.Add(o.baseContext, 1)
	}
	o.emit(events.NewAssistantStatement(statement.String()))

	if o.TalkMode() != TalkModeVoice || !t.live() {
		return
	}
	o.speech.speak(t, statement)
}

func (o *Orchestrator) completeTurn(t *turn, text string) {
	t.streamDone.Store(true)
	o.save()
	if !t.current() {
		return
	}

	o.emit(events.NewAssistantResponseFinal(t.messageID, text))
	o.emit(events.NewTurnCompleted())
	o.settle()
}

// failTurn replaces the response of t with an error message. Failures of a
// superseded turn are expected and leave its partial text in place.
func (o *Orchestrator) failTurn(t *turn, err error) error {
	t.streamDone.Store(true)
	if !t.current() {
		logger.Debug("superseded response stream ended", "error", err)
		o.save()
		return nil
	}

	content := err.Error()
	var streamErr *llms.StreamError
	if errors.As(err, &streamErr) {
		content = streamErr.Error()
	}

	errorMessage := conversations.NewMessage(llms.RoleModel, content)
	errorMessage.Error = true
	if replaceErr := o.history.Replace(t.messageID, errorMessage); replaceErr != nil {
		o.history.Add(errorMessage)
	}
	o.save()

	o.setStatus(StatusSilence)
	o.setSubtitle(content)
	o.emit(events.NewMessagesChanged())
	o.emit(events.NewTurnFailed(err, content))
	return fmt.Errorf("failed to stream response: %w", err)
}

// settle returns the session to silence once the current turn streamed its
// whole response and has nothing left to say.
func (o *Orchestrator) settle() {
	o.mu.Lock()
	t := o.current
	o.mu.Unlock()

	if !t.current() || !t.streamDone.Load() || !o.queue.Idle() {
		return
	}
	o.setStatus(StatusSilence)
}

// StopTalking silences the current turn: queued statements are dropped and
// sounding audio is cut. The response keeps streaming into the transcript.
// It is safe to call at any time, any number of times.
func (o *Orchestrator) StopTalking() {
	o.mu.Lock()
	t := o.current
	o.mu.Unlock()

	if t != nil {
		t.silenced.Store(true)
	}
	o.stopSpeech()
	o.setStatus(StatusSilence)
}

func (o *Orchestrator) stopSpeech() {
	o.queue.Empty()
	o.playback.Stop()
}

// ClearMessages cancels the current turn and empties the transcript.
func (o *Orchestrator) ClearMessages() error {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	o.supersedeTurn()
	o.history.Clear()
	o.setStatus(StatusSilence)
	o.setSubtitle("")
	o.emit(events.NewMessagesChanged())

	if err := o.history.Save(o.baseContext); err != nil {
		return fmt.Errorf("failed to save cleared history: %w", err)
	}
	return nil
}

func (o *Orchestrator) Messages() []llms.ChatMessage {
	return o.history.Messages()
}

// SetTalkMode switches between spoken and text-only responses. Switching to
// chat silences the current turn.
func (o *Orchestrator) SetTalkMode(mode TalkMode) {
	o.mu.Lock()
	if o.talkMode == mode {
		o.mu.Unlock()
		return
	}
	o.talkMode = mode
	o.mu.Unlock()

	if mode == TalkModeChat {
		o.StopTalking()
	}
	o.emit(events.NewTalkModeChanged(string(mode)))
}

func (o *Orchestrator) TalkMode() TalkMode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.talkMode
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *Orchestrator) PlaybackState() PlaybackState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playbackState
}

func (o *Orchestrator) Subtitle() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.subtitle
}

// Close cancels the current turn, stops any recording and saves the
// transcript. Further submissions fail with ErrOrchestratorClosed.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.closed.Store(true)

		o.turnMu.Lock()
		o.supersedeTurn()
		o.turnMu.Unlock()
		o.setStatus(StatusSilence)

		if o.IsRecording() {
			if err := o.stopCapture(o.baseContext); err != nil {
				logger.Warn("failed to stop recording on close", "error", err)
			}
		}
		o.save()
	})
}

// onSpeechStarted runs at the first audible sample. A stop that lands while
// it runs still leaves the session silent: onFinished follows and resets
// playback, and the status is only raised while t is live.
func (o *Orchestrator) onSpeechStarted(t *turn, subtitle string) {
	if !o.setLiveStatus(t, StatusTalking) {
		return
	}
	o.setPlaybackState(PlaybackTalking)
	o.setSubtitle(subtitle)
	o.emit(events.NewAssistantPlaybackStarted(subtitle))
}

func (o *Orchestrator) onSpeechFinished(t *turn) {
	o.setSubtitle("")
	if o.setPlaybackState(PlaybackIdle) {
		o.emit(events.NewAssistantPlaybackEnded())
	}
	o.save()
}

func (o *Orchestrator) onSpeechFailed(t *turn, statement string, err error) {
	logger.Warn("skipping statement", "error", err)
	o.emit(events.NewAssistantSpeechFailed(statement, err))
}

func (o *Orchestrator) synthesisOptions() []texttospeech.SynthesisOption {
	var opts []texttospeech.SynthesisOption
	if o.voice != "" {
		opts = append(opts, texttospeech.WithVoice(o.voice))
	}
	if o.locale != "" {
		opts = append(opts, texttospeech.WithLocale(o.locale))
	}
	if o.audioOutput != nil {
		opts = append(opts, texttospeech.WithEncodingInfo(o.audioOutput.EncodingInfo()))
	}
	return opts
}

func (o *Orchestrator) save() {
	if err := o.history.Save(o.baseContext); err != nil {
		logger.Warn("failed to save history", "error", err)
	}
}

func (o *Orchestrator) emit(event events.Event) {
	o.emitEvent(event)
}

func (o *Orchestrator) setStatus(status Status) {
	o.mu.Lock()
	if o.status == status {
		o.mu.Unlock()
		return
	}
	o.status = status
	o.mu.Unlock()
	o.emit(events.NewStatusChanged(string(status)))
}

// setLiveStatus sets status only while t is live. The check and the write
// share o.mu, and stops silence the turn before they reset the status.
func (o *Orchestrator) setLiveStatus(t *turn, status Status) bool {
	o.mu.Lock()
	if !t.live() {
		o.mu.Unlock()
		return false
	}
	changed := o.status != status
	o.status = status
	o.mu.Unlock()

	if changed {
		o.emit(events.NewStatusChanged(string(status)))
	}
	return true
}

func (o *Orchestrator) setPlaybackState(state PlaybackState) bool {
	o.mu.Lock()
	if o.playbackState == state {
		o.mu.Unlock()
		return false
	}
	o.playbackState = state
	o.mu.Unlock()

	params := state.VisualizerParams()
	o.emit(events.NewPlaybackStateChanged(string(state), params.Speed, params.Amplitude))
	return true
}

func (o *Orchestrator) setSubtitle(subtitle string) {
	o.mu.Lock()
	if o.subtitle == subtitle {
		o.mu.Unlock()
		return
	}
	o.subtitle = subtitle
	o.mu.Unlock()
	o.emit(events.NewSubtitleChanged(subtitle))
}
