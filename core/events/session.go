package events

const (
	KindStatusChanged        Kind = "session.status_changed"
	KindPlaybackStateChanged Kind = "session.playback_state_changed"
	KindSubtitleChanged      Kind = "session.subtitle_changed"
	KindTalkModeChanged      Kind = "session.talk_mode_changed"
	KindMessagesChanged      Kind = "session.messages_changed"
)

// StatusChanged carries the new session status.
type StatusChanged struct {
	Base
	Status string
}

func NewStatusChanged(status string) StatusChanged {
	return StatusChanged{Base: NewBase(KindStatusChanged), Status: status}
}

// PlaybackStateChanged carries the new playback state with the visualizer
// parameters that go with it.
type PlaybackStateChanged struct {
	Base
	State     string
	Speed     float64
	Amplitude float64
}

func NewPlaybackStateChanged(state string, speed, amplitude float64) PlaybackStateChanged {
	return PlaybackStateChanged{Base: NewBase(KindPlaybackStateChanged), State: state, Speed: speed, Amplitude: amplitude}
}

// SubtitleChanged carries the text to display, empty when nothing is shown.
type SubtitleChanged struct {
	Base
	Subtitle string
}

func NewSubtitleChanged(subtitle string) SubtitleChanged {
	return SubtitleChanged{Base: NewBase(KindSubtitleChanged), Subtitle: subtitle}
}

type TalkModeChanged struct {
	Base
	Mode string
}

func NewTalkModeChanged(mode string) TalkModeChanged {
	return TalkModeChanged{Base: NewBase(KindTalkModeChanged), Mode: mode}
}

// MessagesChanged marks a transcript change other than streamed text, such
// as a clear, a revoke or a replaced message.
type MessagesChanged struct{ Base }

func NewMessagesChanged() MessagesChanged {
	return MessagesChanged{Base: NewBase(KindMessagesChanged)}
}
