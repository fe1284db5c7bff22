package entities

import (
	"time"

	"travelbook/services/support-api/internal/domain/chat"
)

// Message represents the database schema for messages
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index:idx_message_conversation_created,priority:2"`

	PublicID       string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationID uint            `gorm:"index:idx_message_conversation_created,priority:1;not null"`
	SenderType     chat.SenderType `gorm:"type:varchar(20);not null"`
	SenderID       *string         `gorm:"type:varchar(64)"`
	Body           string          `gorm:"type:varchar(2000);not null"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// EtoD converts database entity to domain model. The conversation's
// public id is not stored on the row; callers stamp it after loading.
func (m *Message) EtoD() *chat.Message {
	return &chat.Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		SenderType:     m.SenderType,
		SenderID:       m.SenderID,
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
	}
}

// NewSchemaMessage creates a database entity from domain model
func NewSchemaMessage(m *chat.Message) *Message {
	return &Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		SenderType:     m.SenderType,
		SenderID:       m.SenderID,
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
	}
}
