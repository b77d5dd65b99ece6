package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Inova117/mamapanic/internal/model"
)

// InsertDirectMessage stores a direct message and announces it on the
// respira_messages channel. When the sender supplies a client_ref that
// was already used, the previously stored message is returned instead
// of inserting a second copy.
func (db *DB) InsertDirectMessage(ctx context.Context, senderID, recipientID uuid.UUID, content string, clientRef *string) (model.DirectMessage, error) {
	m := model.DirectMessage{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		ClientRef:   clientRef,
		CreatedAt:   time.Now().UTC(),
	}

	tag, err := db.pool.Exec(ctx,
		`INSERT INTO direct_messages (id, sender_id, recipient_id, content, client_ref, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (sender_id, client_ref) WHERE client_ref IS NOT NULL DO NOTHING`,
		m.ID, m.SenderID, m.RecipientID, m.Content, m.ClientRef, m.CreatedAt,
	)
	if err != nil {
		return model.DirectMessage{}, fmt.Errorf("storage: insert message: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Duplicate client_ref; return the original delivery.
		return db.getMessageByClientRef(ctx, senderID, *clientRef)
	}

	event, err := json.Marshal(model.MessageEvent{
		MessageID:   m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		CreatedAt:   m.CreatedAt,
	})
	if err != nil {
		return model.DirectMessage{}, fmt.Errorf("storage: marshal message event: %w", err)
	}
	if err := db.Notify(ctx, ChannelMessages, string(event)); err != nil {
		// The message is stored; a missed notification only delays the
		// recipient until their next poll.
		db.logger.Warn("storage: message notify failed", "message_id", m.ID, "error", err)
	}

	return m, nil
}

func (db *DB) getMessageByClientRef(ctx context.Context, senderID uuid.UUID, clientRef string) (model.DirectMessage, error) {
	var m model.DirectMessage
	err := db.pool.QueryRow(ctx,
		`SELECT id, sender_id, recipient_id, content, client_ref, read_at, created_at
		 FROM direct_messages WHERE sender_id = $1 AND client_ref = $2`,
		senderID, clientRef,
	).Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.ClientRef, &m.ReadAt, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DirectMessage{}, ErrNotFound
		}
		return model.DirectMessage{}, fmt.Errorf("storage: get message by client_ref: %w", err)
	}
	return m, nil
}

// ListConversation returns messages exchanged between two users, oldest
// first.
func (db *DB) ListConversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]model.DirectMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, sender_id, recipient_id, content, client_ref, read_at, created_at
		 FROM direct_messages
		 WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		 ORDER BY created_at ASC LIMIT $3`,
		userA, userB, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list conversation: %w", err)
	}
	defer rows.Close()

	var messages []model.DirectMessage
	for rows.Next() {
		var m model.DirectMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content,
			&m.ClientRef, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountUnreadMessages returns how many messages addressed to the user
// have not been marked read.
func (db *DB) CountUnreadMessages(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM direct_messages
		 WHERE recipient_id = $1 AND read_at IS NULL`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("storage: count unread: %w", err)
	}
	return count, nil
}

// ListClientConversations returns every mother profile with her latest
// exchange with the coach and the coach's unread count, most recent
// conversation first. Mothers without any messages sort last.
func (db *DB) ListClientConversations(ctx context.Context, coachID uuid.UUID) ([]model.Conversation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT p.id, p.display_name, p.avatar_url, lm.content, lm.created_at, COALESCE(u.unread, 0)
		 FROM profiles p
		 LEFT JOIN LATERAL (
		     SELECT content, created_at FROM direct_messages
		     WHERE (sender_id = p.id AND recipient_id = $1) OR (sender_id = $1 AND recipient_id = p.id)
		     ORDER BY created_at DESC LIMIT 1
		 ) lm ON true
		 LEFT JOIN LATERAL (
		     SELECT COUNT(*) AS unread FROM direct_messages
		     WHERE sender_id = p.id AND recipient_id = $1 AND read_at IS NULL
		 ) u ON true
		 WHERE p.role = $2
		 ORDER BY lm.created_at DESC NULLS LAST, p.display_name`,
		coachID, string(model.RoleMother),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list client conversations: %w", err)
	}
	defer rows.Close()

	var conversations []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.UserID, &c.DisplayName, &c.AvatarURL,
			&c.LastMessage, &c.LastMessageAt, &c.UnreadCount); err != nil {
			return nil, fmt.Errorf("storage: scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// MarkMessagesRead stamps all unread messages sent to recipient from
// sender and returns how many were updated.
func (db *DB) MarkMessagesRead(ctx context.Context, recipientID, senderID uuid.UUID) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE direct_messages SET read_at = now()
		 WHERE recipient_id = $1 AND sender_id = $2 AND read_at IS NULL`,
		recipientID, senderID,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: mark messages read: %w", err)
	}
	return tag.RowsAffected(), nil
}
