package mamapanic

import "context"

// MessageRole identifies the author of a prompt message.
type MessageRole string

// Prompt message roles.
const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// PromptMessage is one entry in a completion prompt sent to a
// CompanionProvider.
type PromptMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// CompanionProvider generates AI companion completions: chat replies,
// check-in validations, and bitácora summaries. Register with
// WithCompanionProvider to replace the built-in Groq/noop selection.
// Implementations must be safe for concurrent use; errors make the
// server fall back to canned Spanish responses.
type CompanionProvider interface {
	// Complete returns the assistant completion for the prompt.
	Complete(ctx context.Context, messages []PromptMessage, maxTokens int) (string, error)

	// Name identifies the provider in the health endpoint and logs.
	Name() string
}
