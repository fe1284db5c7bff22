package webhook

import (
	"context"
	"time"
)

// Service notifies external staff tooling about support conversation
// events that need a human.
type Service interface {
	// NotifyHandoff signals that a customer message needs a human
	// response because auto-reply runs in handoff mode.
	NotifyHandoff(ctx context.Context, conversationID, messagePreview, language string) error

	// NotifyReplyFailed signals that an automated reply could not be
	// produced for a conversation.
	NotifyReplyFailed(ctx context.Context, conversationID string, jobID uint, errorMessage string) error
}

// ErrorDetails contains machine readable error info.
type ErrorDetails struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Payload is the structure sent to webhook URLs.
type Payload struct {
	ConversationID string        `json:"conversation_id"`
	Event          string        `json:"event"` // "support.handoff" or "support.reply_failed"
	Preview        string        `json:"preview,omitempty"`
	Language       string        `json:"language,omitempty"`
	JobID          uint          `json:"job_id,omitempty"`
	Error          *ErrorDetails `json:"error,omitempty"`
	OccurredAt     string        `json:"occurred_at"`
}

func timestamp() string {
	return time.Now().Format(time.RFC3339)
}
