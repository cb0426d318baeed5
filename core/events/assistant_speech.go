package events

const (
	// KindAssistantStatement identifies a statement cut from the response.
	KindAssistantStatement Kind = "assistant_speech.statement"
	// KindAssistantSpeechFailed identifies a statement whose synthesis failed.
	KindAssistantSpeechFailed Kind = "assistant_speech.failed"
)

// AssistantStatement carries a detected statement as displayed text.
type AssistantStatement struct {
	Base
	Statement string
}

// NewAssistantStatement creates a statement event.
func NewAssistantStatement(statement string) AssistantStatement {
	return AssistantStatement{Base: NewBase(KindAssistantStatement), Statement: statement}
}

// AssistantSpeechFailed carries the statement that was skipped.
type AssistantSpeechFailed struct {
	Base
	Statement string
	Err       error
}

// NewAssistantSpeechFailed creates a speech failed event.
func NewAssistantSpeechFailed(statement string, err error) AssistantSpeechFailed {
	return AssistantSpeechFailed{Base: NewBase(KindAssistantSpeechFailed), Statement: statement, Err: err}
}
