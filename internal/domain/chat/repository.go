package chat

import "context"

// ConversationRepository persists conversation records and their counters.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *Conversation) error
	FindByPublicID(ctx context.Context, publicID string) (*Conversation, error)
	FindByID(ctx context.Context, id uint) (*Conversation, error)

	// GetOrCreateGuest returns the conversation owned by guestID,
	// creating it if absent. Idempotent under concurrent first calls.
	GetOrCreateGuest(ctx context.Context, guestID string) (*Conversation, error)

	FindByFilter(ctx context.Context, filter ConversationFilter, pagination *Pagination) ([]*Conversation, error)

	// AttachCustomer additively records customer ownership on a
	// guest-created conversation. Existing customer ids are never
	// overwritten.
	AttachCustomer(ctx context.Context, conversationID uint, customerID string) error

	// ResetUnread zeroes one party's unread counter.
	ResetUnread(ctx context.Context, conversationID uint, target CounterTarget) error
}

// MessageRepository persists messages.
type MessageRepository interface {
	// Record inserts the message and, in the same transaction, updates
	// the conversation's summary fields and increments the opposite
	// party's unread counter with a single-statement atomic update.
	Record(ctx context.Context, message *Message) error

	// ListByConversation returns a newest-first page ordered by
	// created_at then id, bounded by page.Before when set.
	ListByConversation(ctx context.Context, conversationID uint, page MessagePage) ([]*Message, error)
}
