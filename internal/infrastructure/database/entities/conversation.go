package entities

import (
	"time"

	"travelbook/services/support-api/internal/domain/chat"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID   string                `gorm:"type:varchar(50);uniqueIndex;not null"`
	Type       chat.ConversationType `gorm:"type:varchar(20);index:idx_conversation_type;not null"`
	CustomerID *string               `gorm:"type:varchar(64);index:idx_conversation_customer"`

	// GuestID is unique when set so concurrent guest bootstraps converge
	// on a single thread per device.
	GuestID *string `gorm:"type:varchar(64);uniqueIndex:idx_conversation_guest"`

	// Denormalized summary, maintained by message ingestion in the same
	// transaction as the message insert.
	LastMessageAt      *time.Time `gorm:"index:idx_conversation_last_message"`
	LastMessagePreview *string    `gorm:"type:varchar(256)"`
	LastSenderType     *string    `gorm:"type:varchar(20)"`

	UnreadStaff    int64 `gorm:"not null;default:0"`
	UnreadCustomer int64 `gorm:"not null;default:0"`

	Messages []Message `gorm:"foreignKey:ConversationID"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// ===============================================
// Conversion Functions
// ===============================================

// EtoD converts database entity to domain model
func (c *Conversation) EtoD() *chat.Conversation {
	return &chat.Conversation{
		ID:                 c.ID,
		PublicID:           c.PublicID,
		Type:               c.Type,
		CustomerID:         c.CustomerID,
		GuestID:            c.GuestID,
		LastMessageAt:      c.LastMessageAt,
		LastMessagePreview: c.LastMessagePreview,
		LastSenderType:     c.LastSenderType,
		UnreadStaff:        c.UnreadStaff,
		UnreadCustomer:     c.UnreadCustomer,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// NewSchemaConversation creates a database entity from domain model
func NewSchemaConversation(c *chat.Conversation) *Conversation {
	return &Conversation{
		ID:                 c.ID,
		PublicID:           c.PublicID,
		Type:               c.Type,
		CustomerID:         c.CustomerID,
		GuestID:            c.GuestID,
		LastMessageAt:      c.LastMessageAt,
		LastMessagePreview: c.LastMessagePreview,
		LastSenderType:     c.LastSenderType,
		UnreadStaff:        c.UnreadStaff,
		UnreadCustomer:     c.UnreadCustomer,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}
