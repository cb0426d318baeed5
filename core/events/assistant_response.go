package events

const (
	// KindAssistantResponseUpdated identifies a response text snapshot.
	KindAssistantResponseUpdated Kind = "assistant_response.updated"
	// KindAssistantResponseFinal identifies the complete response text.
	KindAssistantResponseFinal Kind = "assistant_response.final"
)

// AssistantResponseUpdated carries everything streamed so far for a message.
type AssistantResponseUpdated struct {
	Base
	MessageID string
	Text      string
}

// NewAssistantResponseUpdated creates a response updated event.
func NewAssistantResponseUpdated(messageID, text string) AssistantResponseUpdated {
	return AssistantResponseUpdated{Base: NewBase(KindAssistantResponseUpdated), MessageID: messageID, Text: text}
}

// AssistantResponseFinal carries the complete response for a message.
type AssistantResponseFinal struct {
	Base
	MessageID string
	Text      string
}

// NewAssistantResponseFinal creates a response final event.
func NewAssistantResponseFinal(messageID, text string) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), MessageID: messageID, Text: text}
}
