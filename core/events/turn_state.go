package events

const (
	KindTurnStarted   Kind = "turn_state.started"
	KindTurnCompleted Kind = "turn_state.completed"
	KindTurnFailed    Kind = "turn_state.failed"
	KindTurnCancelled Kind = "turn_state.cancelled"
)

// TurnStarted marks a submitted prompt.
type TurnStarted struct {
	Base
	Prompt string
}

func NewTurnStarted(prompt string) TurnStarted {
	return TurnStarted{Base: NewBase(KindTurnStarted), Prompt: prompt}
}

// TurnCompleted marks the end of a response stream.
type TurnCompleted struct{ Base }

func NewTurnCompleted() TurnCompleted {
	return TurnCompleted{Base: NewBase(KindTurnCompleted)}
}

// TurnFailed marks a response stream that ended with an error. Message is
// the text stored in place of the response.
type TurnFailed struct {
	Base
	Err     error
	Message string
}

func NewTurnFailed(err error, message string) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed), Err: err, Message: message}
}

// TurnCancelled marks a turn superseded by a newer one or cleared.
type TurnCancelled struct{ Base }

func NewTurnCancelled() TurnCancelled {
	return TurnCancelled{Base: NewBase(KindTurnCancelled)}
}
