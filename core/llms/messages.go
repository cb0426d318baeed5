package llms

// Role describes who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is a single entry of the conversation transcript.
type ChatMessage struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Error marks a model message that carries a failure description instead
	// of a response.
	Error bool `json:"error,omitempty"`
}

// PromptHistory drops the messages a model should not see: failed responses
// and empty placeholders.
func PromptHistory(messages []ChatMessage) []ChatMessage {
	history := make([]ChatMessage, 0, len(messages))
	for _, message := range messages {
		if message.Error || message.Content == "" {
			continue
		}
		history = append(history, message)
	}
	return history
}
