package message

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "travelbook/services/support-api/internal/domain/chat"
	"travelbook/services/support-api/internal/infrastructure/database/entities"
	"travelbook/services/support-api/internal/utils/platformerrors"
)

const previewLength = 160

// Repository persists messages and keeps conversation summaries in step.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a message repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record inserts the message and, in the same transaction, refreshes the
// conversation's summary fields and increments the opposite party's
// unread counter. The increment is a single-statement update so
// concurrent sends never lose counts.
func (r *Repository) Record(ctx context.Context, msg *domain.Message) error {
	entity := entities.NewSchemaMessage(msg)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return err
		}

		counterColumn := "unread_staff"
		if msg.UnreadTarget() == domain.CounterCustomer {
			counterColumn = "unread_customer"
		}

		updates := map[string]interface{}{
			"last_message_at":      entity.CreatedAt,
			"last_message_preview": preview(msg.Body),
			"last_sender_type":     string(msg.SenderType),
			counterColumn:          gorm.Expr(counterColumn+" + ?", 1),
			"updated_at":           time.Now(),
		}

		result := tx.Model(&entities.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to record message",
			err,
			"message-record-error",
		)
	}

	msg.ID = entity.ID
	msg.CreatedAt = entity.CreatedAt
	return nil
}

// ListByConversation returns a newest-first page ordered by created_at
// then id, bounded above by page.Before when set.
func (r *Repository) ListByConversation(ctx context.Context, conversationID uint, page domain.MessagePage) ([]*domain.Message, error) {
	query := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("conversation_id = ?", conversationID)

	if page.Before != nil {
		query = query.Where("created_at < ?", *page.Before)
	}
	if page.Limit > 0 {
		query = query.Limit(page.Limit)
	}

	var rows []entities.Message
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list messages",
			err,
			"message-list-error",
		)
	}

	result := make([]*domain.Message, len(rows))
	for i := range rows {
		result[i] = rows[i].EtoD()
	}
	return result, nil
}

func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLength {
		return body
	}
	return string(runes[:previewLength])
}
