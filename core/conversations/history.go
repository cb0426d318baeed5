package conversations

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-talk/core/llms"
)

var ErrMessageNotFound = errors.New("message not found")

// Persister stores full transcript snapshots.
type Persister interface {
	Load(ctx context.Context) ([]llms.ChatMessage, error)
	Store(ctx context.Context, messages []llms.ChatMessage) error
}

// History is the conversation transcript. It is safe for concurrent use.
//
// Mutations only touch memory; Save hands a snapshot to the Persister when
// one is configured.
type History struct {
	messages  []llms.ChatMessage
	persister Persister
	mu        sync.RWMutex
	saveMu    sync.Mutex
}

type HistoryOption func(*History)

func WithPersister(persister Persister) HistoryOption {
	return func(h *History) {
		h.persister = persister
	}
}

func NewHistory(opts ...HistoryOption) *History {
	history := &History{}
	for _, opt := range opts {
		opt(history)
	}
	return history
}

// NewMessage creates a message with a fresh ID.
func NewMessage(role llms.Role, content string) llms.ChatMessage {
	return llms.ChatMessage{ID: uuid.NewString(), Role: role, Content: content}
}

// Load replaces the in-memory transcript with the persisted one.
func (h *History) Load(ctx context.Context) error {
	if h.persister == nil {
		return nil
	}

	messages, err := h.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = messages
	return nil
}

func (h *History) Add(message llms.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, message)
}

// Update sets the content of message id.
func (h *History) Update(id, content string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	h.messages[i].Content = content
	return nil
}

// Replace swaps message id for message, keeping its position.
func (h *History) Replace(id string, message llms.ChatMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	h.messages[i] = message
	return nil
}

// Revoke removes message id and every message after it.
func (h *History) Revoke(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	h.messages = h.messages[:i]
	return nil
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

// Save persists the current transcript. Without a persister it is a no-op.
func (h *History) Save(ctx context.Context) error {
	if h.persister == nil {
		return nil
	}

	// Serialize saves so an older snapshot never overwrites a newer one.
	h.saveMu.Lock()
	defer h.saveMu.Unlock()

	if err := h.persister.Store(ctx, h.Messages()); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// Messages returns a copy of the transcript, oldest first.
func (h *History) Messages() []llms.ChatMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var snapshot []llms.ChatMessage
	if err := copier.CopyWithOption(&snapshot, h.messages, copier.Option{DeepCopy: true}); err != nil {
		return slices.Clone(h.messages)
	}
	return snapshot
}

// Values is an iterator over the transcript, oldest first.
func (h *History) Values(yield func(llms.ChatMessage) bool) {
	for _, message := range h.Messages() {
		if !yield(message) {
			return
		}
	}
}

// RValues is an iterator over the transcript, newest first.
func (h *History) RValues(yield func(llms.ChatMessage) bool) {
	for _, message := range slices.Backward(h.Messages()) {
		if !yield(message) {
			return
		}
	}
}

// LastOfRole returns the newest message authored by role.
func (h *History) LastOfRole(role llms.Role) (llms.ChatMessage, bool) {
	for message := range h.RValues {
		if message.Role == role {
			return message, true
		}
	}
	return llms.ChatMessage{}, false
}

func (h *History) indexOf(id string) int {
	return slices.IndexFunc(h.messages, func(message llms.ChatMessage) bool {
		return message.ID == id
	})
}
