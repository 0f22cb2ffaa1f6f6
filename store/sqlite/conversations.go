package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/store"
)

// CreateConversation implements store.Conversations.
func (s *Store) CreateConversation(ctx context.Context, conv *core.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}
	if conv.LastMessageAt.IsZero() {
		conv.LastMessageAt = conv.CreatedAt
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, title, last_message_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		conv.ID, conv.UserID, conv.Title, conv.LastMessageAt, conv.CreatedAt)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// GetConversation implements store.Conversations.
func (s *Store) GetConversation(ctx context.Context, userID, id string) (*core.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, last_message_at, created_at
		FROM conversations WHERE id = ? AND user_id = ?`, id, userID)

	var c core.Conversation
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.LastMessageAt, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &c, nil
}

// ListConversations implements store.Conversations. Most recently active first.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]core.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, last_message_at, created_at
		FROM conversations WHERE user_id = ?
		ORDER BY last_message_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []core.Conversation
	for rows.Next() {
		var c core.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.LastMessageAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("list conversations: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RenameConversation implements store.Conversations.
func (s *Store) RenameConversation(ctx context.Context, userID, id, title string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE conversations SET title = ? WHERE id = ? AND user_id = ?", title, id, userID)
	if err != nil {
		return fmt.Errorf("rename conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename conversation: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteConversation implements store.Conversations. Messages cascade.
func (s *Store) DeleteConversation(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM conversations WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AppendMessage implements store.Conversations. Bumps the parent
// conversation's activity timestamp.
func (s *Store) AppendMessage(ctx context.Context, msg *core.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE conversations SET last_message_at = ? WHERE id = ?",
		msg.CreatedAt, msg.ConversationID)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// ListMessages implements store.Conversations. Oldest first; unknown
// conversations yield an empty slice.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]core.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM chat_messages WHERE conversation_id = ?
		ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []core.ChatMessage
	for rows.Next() {
		var m core.ChatMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
