package orchestration

// Status is the session state shown to the user.
type Status string

const (
	// StatusSilence means no turn is in flight, or the turn produced text
	// only.
	StatusSilence Status = "silence"
	// StatusThinking means a request was sent and no audio has started yet.
	StatusThinking Status = "thinking"
	// StatusTalking means statement audio is sounding.
	StatusTalking Status = "talking"
)

// PlaybackState reflects whether audio is currently sounding.
type PlaybackState string

const (
	PlaybackIdle    PlaybackState = "idle"
	PlaybackTalking PlaybackState = "talking"
)

// VisualizerParams drive the speaking animation.
type VisualizerParams struct {
	Speed     float64
	Amplitude float64
}

func (s PlaybackState) VisualizerParams() VisualizerParams {
	if s == PlaybackTalking {
		return VisualizerParams{Speed: 0.05, Amplitude: 2}
	}
	return VisualizerParams{Speed: 0.04, Amplitude: 0.1}
}

// TalkMode selects whether responses are spoken.
type TalkMode string

const (
	TalkModeChat  TalkMode = "chat"
	TalkModeVoice TalkMode = "voice"
)

func ParseTalkMode(mode string) (TalkMode, bool) {
	switch TalkMode(mode) {
	case TalkModeChat:
		return TalkModeChat, true
	case TalkModeVoice:
		return TalkModeVoice, true
	}
	return "", false
}
