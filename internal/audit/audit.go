// Package audit records security-relevant user actions without ever
// blocking or failing the operation that triggered them.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies what the user did.
type Action string

const (
	ActionMessageSent        Action = "message_sent"
	ActionMessageReceived    Action = "message_received"
	ActionBitacoraCreated    Action = "bitacora_created"
	ActionBitacoraUpdated    Action = "bitacora_updated"
	ActionCheckinCreated     Action = "checkin_created"
	ActionProfileUpdated     Action = "profile_updated"
	ActionAvatarUploaded     Action = "avatar_uploaded"
	ActionSessionStarted     Action = "session_started"
	ActionSessionEnded       Action = "session_ended"
	ActionSuspiciousActivity Action = "suspicious_activity"
	ActionRateLimitHit       Action = "rate_limit_hit"
)

// Resource identifies what the action touched.
type Resource string

const (
	ResourceDirectMessage Resource = "direct_message"
	ResourceChatMessage   Resource = "chat_message"
	ResourceBitacora      Resource = "bitacora"
	ResourceCheckin       Resource = "checkin"
	ResourceProfile       Resource = "profile"
	ResourceStorage       Resource = "storage"
	ResourceAuth          Resource = "auth"
	ResourceSecurity      Resource = "security"
)

// Entry is a single audit record.
type Entry struct {
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"user_id"`
	Action    Action         `json:"action"`
	Resource  Resource       `json:"resource"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
