package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/koscakluka/ema-talk/core/conversations"
	"github.com/koscakluka/ema-talk/core/llms"
)

func openTestStore(t *testing.T, path, conversationID string) *Store {
	t.Helper()

	store, err := Open(context.Background(), path, conversationID)
	if err != nil {
		t.Fatalf("expected store to open, got %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTripsThroughHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "history.db")
	ctx := context.Background()

	history := conversations.NewHistory(conversations.WithPersister(openTestStore(t, path, "default")))
	history.Add(llms.ChatMessage{ID: "q", Role: llms.RoleUser, Content: "Hi"})
	history.Add(llms.ChatMessage{ID: "a", Role: llms.RoleModel, Content: "401: bad key", Error: true})
	if err := history.Save(ctx); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}

	restored := conversations.NewHistory(conversations.WithPersister(openTestStore(t, path, "default")))
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}

	messages := restored.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].ID != "q" || messages[0].Role != llms.RoleUser {
		t.Fatalf("expected user question first, got %+v", messages[0])
	}
	if !messages[1].Error || messages[1].Content != "401: bad key" {
		t.Fatalf("expected error message second, got %+v", messages[1])
	}
}

func TestStoreReplacesPreviousSnapshot(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "history.db"), "default")
	ctx := context.Background()

	if err := store.Store(ctx, []llms.ChatMessage{{ID: "1", Role: llms.RoleUser, Content: "a"}, {ID: "2", Role: llms.RoleModel, Content: "b"}}); err != nil {
		t.Fatalf("expected first store to succeed, got %v", err)
	}
	if err := store.Store(ctx, nil); err != nil {
		t.Fatalf("expected second store to succeed, got %v", err)
	}

	messages, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected cleared transcript, got %+v", messages)
	}
}

func TestStoreScopesByConversation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()
	first := openTestStore(t, path, "first")
	second := openTestStore(t, path, "second")

	if err := first.Store(ctx, []llms.ChatMessage{{ID: "1", Role: llms.RoleUser, Content: "first"}}); err != nil {
		t.Fatalf("expected store to succeed, got %v", err)
	}

	messages, err := second.Load(ctx)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected no messages for second conversation, got %+v", messages)
	}
}

func TestOpenRequiresConversationID(t *testing.T) {
	if _, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"), ""); err == nil {
		t.Fatalf("expected error for empty conversation id")
	}
}
