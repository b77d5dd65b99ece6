package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Inova117/mamapanic/internal/model"
)

// InsertChatMessage stores one turn of an AI companion conversation.
func (db *DB) InsertChatMessage(ctx context.Context, userID uuid.UUID, sessionID string, role model.ChatRole, content string) (model.ChatMessage, error) {
	m := model.ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO chat_messages (id, session_id, user_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.SessionID, m.UserID, string(m.Role), m.Content, m.CreatedAt,
	)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("storage: insert chat message: %w", err)
	}
	return m, nil
}

// ListChatHistory returns a session's messages oldest first, capped at
// limit.
func (db *DB) ListChatHistory(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, user_id, role, content, created_at
		 FROM chat_messages WHERE user_id = $1 AND session_id = $2
		 ORDER BY created_at ASC LIMIT $3`,
		userID, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list chat history: %w", err)
	}
	defer rows.Close()
	return scanChatMessages(rows)
}

// RecentChatContext returns the session's most recent messages in
// chronological order, for building the companion's context window.
func (db *DB) RecentChatContext(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, user_id, role, content, created_at FROM (
		     SELECT id, session_id, user_id, role, content, created_at
		     FROM chat_messages WHERE user_id = $1 AND session_id = $2
		     ORDER BY created_at DESC LIMIT $3
		 ) recent ORDER BY created_at ASC`,
		userID, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: recent chat context: %w", err)
	}
	defer rows.Close()
	return scanChatMessages(rows)
}

func scanChatMessages(rows pgx.Rows) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		var role string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan chat message: %w", err)
		}
		m.Role = model.ChatRole(role)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
