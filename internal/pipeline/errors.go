package pipeline

import "fmt"

// ValidationError rejects content before it reaches storage. Message is
// the user-facing Spanish explanation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "pipeline: validation failed: " + e.Message
}

// RateLimitError rejects a send that exceeded its action's budget.
type RateLimitError struct {
	Action  string
	Message string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("pipeline: rate limited (%s): %s", e.Action, e.Message)
}

// ConversationBusyError rejects a send while another send for the same
// conversation is still in flight.
type ConversationBusyError struct {
	Key string
}

func (e *ConversationBusyError) Error() string {
	return "pipeline: conversation busy: " + e.Key
}
