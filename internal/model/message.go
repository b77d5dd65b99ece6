package model

import (
	"time"

	"github.com/google/uuid"
)

// DirectMessage is a message between a mother and her coach.
type DirectMessage struct {
	ID          uuid.UUID `json:"id"`
	SenderID    uuid.UUID `json:"sender_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Content     string    `json:"content"`
	ClientRef   *string   `json:"client_ref,omitempty"` // caller-supplied correlation id
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Conversation summarizes a coach's thread with one client for the
// dashboard: the latest exchange and how many messages await her.
type Conversation struct {
	UserID        uuid.UUID  `json:"user_id"`
	DisplayName   string     `json:"display_name"`
	AvatarURL     *string    `json:"avatar_url,omitempty"`
	LastMessage   *string    `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	UnreadCount   int64      `json:"unread_count"`
}

// SendMessageRequest is the request body for POST /v1/messages.
type SendMessageRequest struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	Content     string    `json:"content"`
	ClientRef   *string   `json:"client_ref,omitempty"`
}

// ChatRole distinguishes who wrote a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn in a conversation with the AI companion.
// Messages in a session form the context window for the next reply.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRequest is the request body for POST /v1/chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

// CommunityPresence is the simulated "you are not alone" signal shown
// on the dashboard.
type CommunityPresence struct {
	OnlineCount int      `json:"online_count"`
	SampleNames []string `json:"sample_names"`
	Message     string   `json:"message"`
}
