package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/koscakluka/ema-talk/core/llms"
	_ "modernc.org/sqlite"
)

// Store keeps transcript snapshots in a SQLite file. Each Store writes the
// messages of a single conversation.
type Store struct {
	db             *sql.DB
	conversationID string
	clock          func() time.Time
}

// Open creates or opens the database at path. The conversation id scopes
// every read and write, so several conversations can share one file.
func Open(ctx context.Context, path, conversationID string) (*Store, error) {
	if conversationID == "" {
		return nil, errors.New("conversation id is required")
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	s := &Store{db: db, conversationID: conversationID, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS messages (
    conversation_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    is_error INTEGER NOT NULL DEFAULT 0,
    saved_at TIMESTAMP NOT NULL,
    PRIMARY KEY (conversation_id, position)
);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Load returns the stored transcript, oldest first.
func (s *Store) Load(ctx context.Context) ([]llms.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, is_error FROM messages WHERE conversation_id = ? ORDER BY position`,
		s.conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []llms.ChatMessage
	for rows.Next() {
		var (
			message llms.ChatMessage
			role    string
		)
		if err := rows.Scan(&message.ID, &role, &message.Content, &message.Error); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		message.Role = llms.Role(role)
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

// Store replaces the stored transcript with messages in one transaction.
func (s *Store) Store(ctx context.Context, messages []llms.ChatMessage) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, s.conversationID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (conversation_id, position, id, role, content, is_error, saved_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	savedAt := s.clock().UTC()
	for position, message := range messages {
		if _, err = stmt.ExecContext(ctx, s.conversationID, position, message.ID, string(message.Role), message.Content, message.Error, savedAt); err != nil {
			return fmt.Errorf("failed to insert message %s: %w", message.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit messages: %w", err)
	}
	return nil
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
