package events

const (
	KindAssistantPlaybackStarted Kind = "assistant_playback.started"
	KindAssistantPlaybackEnded   Kind = "assistant_playback.ended"
)

// AssistantPlaybackStarted marks the first audible sample of a statement.
type AssistantPlaybackStarted struct {
	Base
	Subtitle string
}

func NewAssistantPlaybackStarted(subtitle string) AssistantPlaybackStarted {
	return AssistantPlaybackStarted{Base: NewBase(KindAssistantPlaybackStarted), Subtitle: subtitle}
}

// AssistantPlaybackEnded marks a statement that finished or was stopped.
type AssistantPlaybackEnded struct{ Base }

func NewAssistantPlaybackEnded() AssistantPlaybackEnded {
	return AssistantPlaybackEnded{Base: NewBase(KindAssistantPlaybackEnded)}
}
