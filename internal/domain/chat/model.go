package chat

import (
	"time"
)

// ===============================================
// Conversation Types
// ===============================================

// ConversationType partitions threads into the shared public channel and
// customer-scoped private threads. Immutable after creation.
type ConversationType string

const (
	ConversationTypePublic  ConversationType = "public"
	ConversationTypePrivate ConversationType = "private"
)

// Valid reports whether the type is one of the two known values.
func (t ConversationType) Valid() bool {
	return t == ConversationTypePublic || t == ConversationTypePrivate
}

// SenderType indicates who authored a message.
type SenderType string

const (
	SenderUser   SenderType = "user"
	SenderAdmin  SenderType = "admin"
	SenderSystem SenderType = "system"
	SenderAI     SenderType = "ai"
)

// CounterTarget selects which party's unread counter an operation touches.
type CounterTarget string

const (
	CounterStaff    CounterTarget = "staff"
	CounterCustomer CounterTarget = "customer"
)

// MaxBodyLength bounds message bodies.
const MaxBodyLength = 2000

// ===============================================
// Conversation Structure
// ===============================================

// Conversation is a thread of messages with fixed type and ownership.
// CustomerID and GuestID are additive: a guest thread keeps its guest id
// after a customer is attached.
type Conversation struct {
	ID         uint             `json:"-"`
	PublicID   string           `json:"id"`
	Type       ConversationType `json:"type"`
	CustomerID *string          `json:"customer_id,omitempty"`
	GuestID    *string          `json:"guest_id,omitempty"`

	// Denormalized summary fields, written only by message ingestion in
	// the same unit of work as the message insert.
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	LastMessagePreview *string    `json:"last_message_preview,omitempty"`
	LastSenderType     *string    `json:"last_sender_type,omitempty"`

	UnreadStaff    int64 `json:"unread_staff"`
	UnreadCustomer int64 `json:"unread_customer"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedByCustomer reports whether userID owns this conversation.
func (c *Conversation) OwnedByCustomer(userID string) bool {
	return c.CustomerID != nil && *c.CustomerID == userID
}

// OwnedByGuest reports whether guestID owns this conversation.
func (c *Conversation) OwnedByGuest(guestID string) bool {
	return c.GuestID != nil && *c.GuestID == guestID
}

// ===============================================
// Message Structure
// ===============================================

// Message is a single immutable entry in a conversation. Messages are
// totally ordered within a conversation by CreatedAt with ID as the
// tie-break.
type Message struct {
	ID             uint       `json:"-"`
	PublicID       string     `json:"id"`
	ConversationID uint       `json:"-"`
	Conversation   string     `json:"conversation_id"`
	SenderType     SenderType `json:"sender_type"`
	SenderID       *string    `json:"sender_id,omitempty"`
	Body           string     `json:"body"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Before reports whether m sorts strictly before other in conversation
// order (CreatedAt, then insertion id).
func (m *Message) Before(other *Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}

// UnreadTarget returns which party's counter a message of this sender type
// increments: staff for user/system/ai authored messages, customer for
// admin authored ones.
func (m *Message) UnreadTarget() CounterTarget {
	if m.SenderType == SenderAdmin {
		return CounterCustomer
	}
	return CounterStaff
}

// ===============================================
// Filters and factories
// ===============================================

// ConversationFilter narrows staff inbox listings.
type ConversationFilter struct {
	Type       *ConversationType
	CustomerID *string
	GuestID    *string
}

// Pagination is a page/size pair for offset listings.
type Pagination struct {
	Page     int
	PageSize int
}

// MessagePage describes a keyset fetch: newest-first, Before as an
// exclusive upper bound on CreatedAt.
type MessagePage struct {
	Limit  int
	Before *time.Time
}

// NewConversation creates a conversation record pending persistence.
func NewConversation(publicID string, convType ConversationType, customerID, guestID *string) *Conversation {
	now := time.Now()
	return &Conversation{
		PublicID:   publicID,
		Type:       convType,
		CustomerID: customerID,
		GuestID:    guestID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewMessage creates a message record pending persistence. CreatedAt is
// assigned by the server at persist time.
func NewMessage(publicID string, conversationID uint, senderType SenderType, senderID *string, body string) *Message {
	return &Message{
		PublicID:       publicID,
		ConversationID: conversationID,
		SenderType:     senderType,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      time.Now(),
	}
}
