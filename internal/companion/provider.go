// Package companion generates the empathetic AI responses shown to
// mothers: chat replies, check-in validations, and bitácora summaries
// for the sleep coach. Generation is best-effort; every public method
// falls back to a reassuring canned Spanish message when the underlying
// provider fails.
package companion

import (
	"context"
	"errors"
)

// Role identifies the author of a prompt message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a completion prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ErrUnavailable is returned by providers that have no backing model,
// such as NoopProvider when no API key is configured.
var ErrUnavailable = errors.New("companion: provider unavailable")

// Provider produces a completion for a prompt. Implementations must be
// safe for concurrent use.
type Provider interface {
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
	Name() string
}

// NoopProvider always fails, which makes the Companion fall back to its
// canned messages. Used when no API key is configured.
type NoopProvider struct{}

// Complete implements Provider.
func (NoopProvider) Complete(context.Context, []Message, int) (string, error) {
	return "", ErrUnavailable
}

// Name implements Provider.
func (NoopProvider) Name() string { return "noop" }
